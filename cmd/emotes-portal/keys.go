package main

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/AlexZinkM/emotes-portal/internal/config"
	"github.com/AlexZinkM/emotes-portal/internal/keys"
	"github.com/AlexZinkM/emotes-portal/internal/model"

	"github.com/urfave/cli/v2"
)

var keygenCmd = &cli.Command{
	Name:      "keygen",
	Usage:     "generate an encrypted key file",
	ArgsUsage: "<file.cwt>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "kind",
			Usage: "key kind: wallet or base_account",
			Value: string(model.KeyKindWallet),
		},
	},
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 1 {
			return errors.New("expected exactly one key file path")
		}

		kind := model.KeyKind(cctx.String("kind"))
		if kind != model.KeyKindWallet && kind != model.KeyKindBaseAccount {
			return fmt.Errorf("unknown key kind %q", kind)
		}

		password, err := readNewPassword()
		if err != nil {
			return err
		}
		defer clear(password)

		address, err := keys.GenerateKeyFile(cctx.Args().First(), kind, password)
		if err != nil {
			return err
		}
		fmt.Fprintf(cctx.App.Writer, "%s key created: %s\n", kind, address)
		return nil
	},
}

var rekeyCmd = &cli.Command{
	Name:      "rekey",
	Usage:     "re-encrypt a key file under a new password",
	ArgsUsage: "<file.cwt>",
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 1 {
			return errors.New("expected exactly one key file path")
		}

		oldPassword, err := config.ReadPassword("Enter current password: ")
		if err != nil {
			return err
		}
		defer clear(oldPassword)

		newPassword, err := readNewPassword()
		if err != nil {
			return err
		}
		defer clear(newPassword)

		if err := keys.Rekey(cctx.Args().First(), oldPassword, newPassword); err != nil {
			return err
		}
		fmt.Fprintln(cctx.App.Writer, "key file re-encrypted")
		return nil
	},
}

func readNewPassword() ([]byte, error) {
	password, err := config.ReadPassword("Enter new password: ")
	if err != nil {
		return nil, err
	}
	confirm, err := config.ReadPassword("Repeat password: ")
	if err != nil {
		clear(password)
		return nil, err
	}
	defer clear(confirm)

	if !bytes.Equal(password, confirm) {
		clear(password)
		return nil, errors.New("passwords do not match")
	}
	return password, nil
}
