package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/itemsubmit/internal/config"
	"github.com/idilsaglam/itemsubmit/internal/model"
	"github.com/idilsaglam/itemsubmit/internal/store/jsonstore"
	"github.com/idilsaglam/itemsubmit/internal/submit"
	"github.com/idilsaglam/itemsubmit/internal/tui"
)

const (
	aliceAddress = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	itemID       = "0x0102030405060708091011121314151617181920212223242526272829303132"
)

type fakeConn struct {
	statuses []model.Status
	call     string
}

func (f *fakeConn) SubmitAndWatch(ctx context.Context, signer signature.KeyringPair, call string, args []any, onStatus func(model.Status)) error {
	f.call = call
	for _, s := range f.statuses {
		onStatus(s)
	}
	return nil
}

func (f *fakeConn) Close() {}

type harness struct {
	app      *App
	conn     *fakeConn
	dialed   string
	receipts string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	chdir(t, dir)

	h := &harness{
		conn: &fakeConn{statuses: []model.Status{
			{Kind: model.StatusReady},
			{Kind: model.StatusInBlock, BlockHash: "0xaa"},
			{Kind: model.StatusFinalized, BlockHash: "0xaa"},
		}},
		receipts: filepath.Join(dir, "receipts.json"),
	}
	h.app = &App{
		Dial: func(ctx context.Context, url string) (submit.Conn, error) {
			h.dialed = url
			return h.conn, nil
		},
		RunForm: func(ctx context.Context, svc tui.Submitter, opt tui.Options) error { return nil },
		Stdin:   strings.NewReader(""),
	}
	return h
}

func (h *harness) run(args ...string) (int, string, string) {
	var out, errOut bytes.Buffer
	args = append([]string{"--receipts-file", h.receipts, "--theme", "mono"}, args...)
	code := h.app.Execute(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestSubmit_PrintsStatusesAndRecordsReceipt(t *testing.T) {
	h := newHarness(t)

	code, out, errOut := h.run("submit",
		"--url", "ws://node:9944",
		"--collection", "42",
		"--signer", "//Alice",
		"--item-id", itemID,
		"--description", "an item",
	)
	require.Equal(t, ExitOK, code, errOut)

	assert.Equal(t, "ws://node:9944", h.dialed)
	assert.Equal(t, submit.AddCollectionItem, h.conn.call)
	assert.Contains(t, out, "signer "+aliceAddress)
	assert.Contains(t, out, "Current status is Ready")
	assert.Contains(t, out, "Transaction included at blockHash 0xaa")
	assert.Contains(t, out, "Transaction finalized at blockHash 0xaa")
	assert.Contains(t, out, "finalized")

	receipts, err := jsonstore.Load(h.receipts)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, "42", receipts[0].CollectionID)
	assert.Equal(t, aliceAddress, receipts[0].Signer)
}

func TestSubmit_SignerFromStdin(t *testing.T) {
	h := newHarness(t)
	h.app.Stdin = strings.NewReader("//Alice\n")

	code, out, errOut := h.run("submit", "--url", "ws://n", "--collection", "1", "--item-id", itemID)
	require.Equal(t, ExitOK, code, errOut)
	assert.Contains(t, out, aliceAddress)
}

func TestSubmit_UsageErrors(t *testing.T) {
	h := newHarness(t)

	code, _, errOut := h.run("submit", "--collection", "1", "--item-id", itemID, "--signer", "//Alice")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, errOut, "--url is required")

	code, _, _ = h.run("submit", "--url", "ws://n", "--item-id", itemID, "--signer", "//Alice")
	assert.Equal(t, ExitUsage, code)

	code, _, errOut = h.run("submit", "--url", "ws://n", "--collection", "1", "--item-id", itemID)
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, errOut, "no signer URI")

	code, _, _ = h.run("submit", "--bogus")
	assert.Equal(t, ExitUsage, code)

	assert.Empty(t, h.dialed)
}

func TestSubmit_BadItemIDFails(t *testing.T) {
	h := newHarness(t)
	code, _, errOut := h.run("submit", "--url", "ws://n", "--collection", "1", "--item-id", "0x12", "--signer", "//Alice")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, errOut, "Could not submit:")
}

func TestAddress(t *testing.T) {
	h := newHarness(t)

	code, out, _ := h.run("address", "//Alice")
	require.Equal(t, ExitOK, code)
	assert.Equal(t, aliceAddress+"\n", out)

	code, _, _ = h.run("address")
	assert.Equal(t, ExitUsage, code)

	code, _, _ = h.run("address", "not a mnemonic")
	assert.Equal(t, ExitError, code)
}

func TestTypes(t *testing.T) {
	h := newHarness(t)

	code, out, _ := h.run("types")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "LocId = u128")
	assert.Contains(t, out, "LocType = Transaction | Identity | Collection")

	code, out, _ = h.run("types", "CollectionItemId")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "CollectionItemId = Hash")

	code, _, _ = h.run("types", "Nope")
	assert.Equal(t, ExitError, code)
}

func TestReceipts_Empty(t *testing.T) {
	h := newHarness(t)
	code, out, _ := h.run("receipts")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Receipts (0)")
	assert.Contains(t, out, "no receipts")
}

func TestRoot_RunsFormWithConfig(t *testing.T) {
	h := newHarness(t)
	var got tui.Options
	h.app.RunForm = func(ctx context.Context, svc tui.Submitter, opt tui.Options) error {
		got = opt
		assert.Equal(t, aliceAddress, svc.SignerAddress("//Alice"))
		return nil
	}
	t.Setenv("ITEMSUBMIT_URL", "ws://from-env")

	code, _, errOut := h.run("--collection", "9")
	require.Equal(t, ExitOK, code, errOut)
	assert.Equal(t, tui.Options{URL: "ws://from-env", Collection: "9"}, got)
}

func TestRoot_UnknownSubcommand(t *testing.T) {
	h := newHarness(t)
	code, _, errOut := h.run("frobnicate")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, errOut, "unknown subcommand: frobnicate")
}

func TestShorten(t *testing.T) {
	assert.Equal(t, "0x01", shorten("0x01", 20))
	s := shorten(itemID, 11)
	assert.Equal(t, "0x010…03132", s)
}

func TestSubmit_DescriptionFromFile(t *testing.T) {
	h := newHarness(t)
	desc := filepath.Join(t.TempDir(), "desc.txt")
	require.NoError(t, os.WriteFile(desc, []byte("from a file\n"), 0o644))

	code, _, errOut := h.run("submit", "--url", "ws://n", "--collection", "1",
		"--signer", "//Alice", "--item-id", itemID, "--description-file", desc)
	require.Equal(t, ExitOK, code, errOut)

	receipts, err := jsonstore.Load(h.receipts)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, "from a file\n", receipts[0].Description)
}

func TestReceipts_ListsLast(t *testing.T) {
	h := newHarness(t)
	at := time.Date(2024, 5, 6, 7, 8, 0, 0, time.UTC)
	require.NoError(t, jsonstore.Save(h.receipts, []model.Receipt{
		{CollectionItem: model.CollectionItem{CollectionID: "111", ItemID: itemID}, Status: "Dropped", SubmittedAt: at},
		{CollectionItem: model.CollectionItem{CollectionID: "222", ItemID: itemID}, Status: "Finalized", BlockHash: "0xfeed", SubmittedAt: at, FinalizedAt: &at},
	}))

	code, out, _ := h.run("receipts")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Receipts (2)")
	assert.Contains(t, out, "collection: 111")
	assert.Contains(t, out, "collection: 222")
	assert.Contains(t, out, "block: 0xfeed")

	code, out, _ = h.run("receipts", "-n", "1")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Receipts (1)")
	assert.NotContains(t, out, "collection: 111")
	assert.Contains(t, out, "collection: 222")
}

func TestInit_WritesConfigUsedByNextRun(t *testing.T) {
	h := newHarness(t)

	code, out, errOut := h.run("init", "--url", "ws://saved", "--collection", "5")
	require.Equal(t, ExitOK, code, errOut)
	path, err := config.GetConfigPath()
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "ws://saved")
	assert.NotContains(t, string(b), "signer")

	var got tui.Options
	h.app.RunForm = func(ctx context.Context, svc tui.Submitter, opt tui.Options) error {
		got = opt
		return nil
	}
	code, _, errOut = h.run()
	require.Equal(t, ExitOK, code, errOut)
	assert.Equal(t, tui.Options{URL: "ws://saved", Collection: "5"}, got)
}

func TestTypes_Builtin(t *testing.T) {
	h := newHarness(t)
	code, out, errOut := h.run("types", "Hash")
	require.Equal(t, ExitOK, code, errOut)
	assert.Contains(t, out, "Hash = H256 (primitive)")

	code, out, _ = h.run("types", "u128")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "u128 = u128")
}

func TestAddress_Prefix(t *testing.T) {
	h := newHarness(t)

	code, out, _ := h.run("--ss58-prefix", "2021", "address", "//Alice")
	require.Equal(t, ExitOK, code)
	assert.Equal(t, "vQx5kESPn8dWyX4KxMCKqUyCaWUwtui1isX6PVNcZh2Ghjitr\n", out)

	code, _, errOut := h.run("--ss58-prefix", "20000", "address", "//Alice")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, errOut, "out of range")
}

func TestAddress_Details(t *testing.T) {
	h := newHarness(t)
	code, out, _ := h.run("address", "--details", "//Alice")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, aliceAddress)
	assert.Contains(t, out, "Public key: 0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d")
	assert.Contains(t, out, "Secret: development phrase")
	assert.Contains(t, out, "Path: //Alice")
}

func TestColorFlag(t *testing.T) {
	h := newHarness(t)

	code, out, _ := h.run("--theme", "classic", "--color", "always", "address", "-d", "//Alice")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "\033[")

	code, out, _ = h.run("--theme", "classic", "--color", "never", "address", "-d", "//Alice")
	require.Equal(t, ExitOK, code)
	assert.NotContains(t, out, "\033[")

	code, _, _ = h.run("--color", "rainbow", "types")
	assert.Equal(t, ExitUsage, code)
}

func TestUnsupportedLanguage(t *testing.T) {
	h := newHarness(t)
	code, _, errOut := h.run("--lang", "de", "types")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, errOut, "unsupported language")
}

func TestTimeoutFlag_ZeroMeansNoLimit(t *testing.T) {
	h := newHarness(t)
	var timeout time.Duration
	h.app.RunForm = func(ctx context.Context, svc tui.Submitter, opt tui.Options) error {
		timeout = svc.(*submit.Service).Timeout
		return nil
	}

	code, _, errOut := h.run()
	require.Equal(t, ExitOK, code, errOut)
	assert.Equal(t, 5*time.Minute, timeout)

	code, _, errOut = h.run("--timeout", "0")
	require.Equal(t, ExitOK, code, errOut)
	assert.Equal(t, time.Duration(0), timeout)
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
