package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/idilsaglam/itemsubmit/internal/model"
	"github.com/idilsaglam/itemsubmit/internal/ui"
)

// stages a healthy submission goes through, for the progress bar
var stages = map[model.StatusKind]int{
	model.StatusFuture:    1,
	model.StatusReady:     1,
	model.StatusBroadcast: 2,
	model.StatusInBlock:   3,
	model.StatusFinalized: 4,
}

func (a *App) newSubmitCmd() *cobra.Command {
	var (
		signer      string
		itemID      string
		description string
		descFile    string
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit one collection item without the form",
		Long: `Submit one collection item and print every status update until the
transaction is finalized. When --signer is omitted the signer URI is read
from the terminal without echo, or from the first line of stdin.`,
		Example: `  itemsubmit submit --url wss://test-rpc01.logion.network --collection 1234 \
    --item-id 0x$(sha256sum file.pdf | cut -d' ' -f1) --description "file.pdf"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if descFile != "" {
				b, err := os.ReadFile(descFile)
				if err != nil {
					return fmt.Errorf("read description: %w", err)
				}
				description = string(b)
			}
			if a.cfg.URL == "" {
				return usagef("--url is required (or set url in the config file)")
			}
			if a.cfg.Collection == "" {
				return usagef("--collection is required")
			}
			if strings.TrimSpace(itemID) == "" {
				return usagef("--item-id is required")
			}
			if signer == "" {
				s, err := a.readSigner(cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				signer = s
			}

			svc, err := a.service()
			if err != nil {
				return err
			}
			sub := model.Submission{
				URL:       a.cfg.URL,
				SignerURI: signer,
				Item: model.CollectionItem{
					CollectionID: a.cfg.Collection,
					ItemID:       itemID,
					Description:  description,
				},
			}
			ui.Info("signer " + svc.SignerAddress(signer))

			receipt, err := svc.Submit(cmd.Context(), sub, func(st model.Status) {
				ui.Info(st.String() + "  " + ui.C(ui.Current().Muted, ui.ProgressBar(stages[st.Kind], 4, 12)))
			})
			if err != nil {
				return submitError{err}
			}
			ui.OK("finalized")
			ui.Panel([]string{
				ui.Field("Collection", receipt.CollectionID),
				ui.Field("Item", receipt.ItemID),
				ui.Field("Signer", receipt.Signer),
				ui.Field("Block", receipt.BlockHash),
			})
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&signer, "signer", "", "signer URI: mnemonic or 0x seed, with optional //derivation (prefer the prompt)")
	f.StringVar(&itemID, "item-id", "", "item ID: 0x followed by 64 hexadecimal digits")
	f.StringVar(&description, "description", "", "item description, at most 4096 bytes")
	f.StringVar(&descFile, "description-file", "", "read the item description from a file")
	cmd.MarkFlagsMutuallyExclusive("description", "description-file")
	return cmd
}

// readSigner prompts without echo on a terminal and reads one line otherwise.
func (a *App) readSigner(prompt io.Writer) (string, error) {
	if f, ok := a.Stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Signer URI: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("read signer: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(a.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", usagef("no signer URI: pass --signer or pipe it on stdin")
	}
	return strings.TrimSpace(line), nil
}
