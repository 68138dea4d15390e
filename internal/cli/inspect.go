package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/itemsubmit/internal/chaintypes"
	"github.com/idilsaglam/itemsubmit/internal/config"
	"github.com/idilsaglam/itemsubmit/internal/keys"
	"github.com/idilsaglam/itemsubmit/internal/store/jsonstore"
	"github.com/idilsaglam/itemsubmit/internal/ui"
)

func (a *App) newAddressCmd() *cobra.Command {
	var details bool
	cmd := &cobra.Command{
		Use:   "address <signer-uri>",
		Short: "Print the SS58 address derived from a signer URI",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usagef("usage: itemsubmit address <signer-uri>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := keys.Derive(args[0], a.cfg.SS58Prefix)
			if err != nil {
				return err
			}
			if !details {
				fmt.Fprintln(cmd.OutOrStdout(), p.Address)
				return nil
			}

			source := "mnemonic"
			switch {
			case p.Parsed.Dev():
				source = "development phrase"
			case p.Parsed.Seed != nil:
				source = "hex seed"
			}
			path := p.Parsed.PathString()
			if path == "" {
				path = "(none)"
			}
			ui.Panel([]string{
				ui.Field("Address", p.Address),
				ui.Field("Public key", fmt.Sprintf("0x%x", p.PublicKey)),
				ui.Field("Format", fmt.Sprint(a.cfg.SS58Prefix)),
				ui.Field("Secret", source),
				ui.Field("Path", path),
			})
			return nil
		},
	}
	cmd.Flags().BoolVarP(&details, "details", "d", false, "also show the public key, address format and derivation path")
	return cmd
}

func (a *App) newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types [name]",
		Short: "List the chain type dictionary or resolve one type",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := chaintypes.Load(a.cfg.TypesFile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, name := range reg.Names() {
					d, _ := reg.Lookup(name)
					fmt.Fprintln(out, d.String())
				}
				return nil
			}

			name := args[0]
			d, ok := reg.Lookup(name)
			if !ok {
				if canonical, builtin := chaintypes.Builtin(name); builtin {
					fmt.Fprintf(out, "%s = %s %s\n", name, canonical, ui.C(ui.Current().Muted, "(primitive)"))
					return nil
				}
				return fmt.Errorf("%w: %s", chaintypes.ErrUnknownType, name)
			}
			fmt.Fprintln(out, d.String())
			if d.Kind == chaintypes.KindAlias {
				if resolved, err := reg.Resolve(name); err == nil && resolved != d.Alias {
					fmt.Fprintln(out, ui.C(ui.Current().Muted, "resolves to "+resolved))
				}
			}
			return nil
		},
	}
}

func (a *App) newReceiptsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "receipts",
		Short: "List recorded submissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.receiptsPath()
			if err != nil {
				return err
			}
			receipts, err := jsonstore.Store{Path: path}.Load()
			if err != nil {
				return fmt.Errorf("load: %w", err)
			}
			if limit > 0 && len(receipts) > limit {
				receipts = receipts[len(receipts)-limit:]
			}

			t := ui.Current()
			lines := []string{ui.C(t.Title, fmt.Sprintf("Receipts (%d)", len(receipts))), ""}
			if len(receipts) == 0 {
				lines = append(lines, ui.C(t.Muted, "no receipts"))
			}
			for i, r := range receipts {
				sym, color := t.SymDone, t.Success
				if r.FinalizedAt == nil {
					sym, color = t.SymFailed, t.Error
				}
				lines = append(lines, fmt.Sprintf("%s %s %s  %s",
					ui.C(t.Muted, fmt.Sprintf("%2d.", i+1)),
					ui.C(color, sym),
					r.SubmittedAt.Local().Format("2006-01-02 15:04"),
					r.Status,
				))
				lines = append(lines, "    "+ui.Field("collection", r.CollectionID)+"  "+ui.Field("item", shorten(r.ItemID, 20)))
				if r.BlockHash != "" {
					lines = append(lines, "    "+ui.Field("block", r.BlockHash))
				}
			}
			lines = append(lines, "", ui.C(t.Muted, "File: "+path))
			ui.Panel(lines)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "last", "n", 0, "only show the last n receipts")
	return cmd
}

func (a *App) newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the current settings to the user config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.cfg
			path, err := config.WriteConfigFile(&c)
			if err != nil {
				return err
			}
			ui.OK("wrote " + path)
			return nil
		},
	}
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	half := (n - 1) / 2
	return s[:half] + "…" + s[len(s)-(n-1-half):]
}
