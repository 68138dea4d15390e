package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-viper/mapstructure/v2"

	"github.com/idilsaglam/itemsubmit/internal/i18n"
	"github.com/idilsaglam/itemsubmit/internal/logging"
	"github.com/idilsaglam/itemsubmit/internal/model"
)

// Submitter is what the form needs from the submission service.
type Submitter interface {
	Submit(ctx context.Context, sub model.Submission, onStatus func(model.Status)) (model.Receipt, error)
	SignerAddress(uri string) string
}

// Options prefill the form.
type Options struct {
	URL        string
	Collection string
}

// focus order; the address field is read-only and never takes focus
const (
	fieldURL = iota
	fieldSigner
	fieldCollection
	fieldItemID
	fieldDescription
	fieldSubmit
	fieldCount
)

// ids used to collect input values, in the same order as the fields above
var fieldIDs = [...]string{"url", "signer", "collection", "item_id", "description"}

type formValues struct {
	URL         string `mapstructure:"url"`
	Signer      string `mapstructure:"signer"`
	Collection  string `mapstructure:"collection"`
	ItemID      string `mapstructure:"item_id"`
	Description string `mapstructure:"description"`
}

type statusMsg model.Status

type doneMsg struct {
	receipt model.Receipt
	err     error
}

type formModel struct {
	svc    Submitter
	ctx    context.Context
	cancel context.CancelFunc

	inputs      [fieldDescription]textinput.Model
	description textarea.Model
	address     string
	focus       int

	submitting bool
	updates    <-chan tea.Msg
	state      string
	err        string
	receipt    *model.Receipt

	spinner spinner.Model
	help    help.Model
	keys    keyMap
	width   int
}

func newForm(ctx context.Context, svc Submitter, opt Options) formModel {
	m := formModel{
		svc:     svc,
		ctx:     ctx,
		keys:    defaultKeyMap,
		help:    help.New(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		width:   80,
	}
	m.help.Styles.ShortKey = helpStyle
	m.help.Styles.ShortDesc = helpStyle
	m.spinner.Style = pendingStyle

	for i := range m.inputs {
		ti := textinput.New()
		ti.Prompt = "> "
		ti.CharLimit = 512
		m.inputs[i] = ti
	}
	m.inputs[fieldURL].Placeholder = "wss://test-rpc01.logion.network"
	m.inputs[fieldSigner].EchoMode = textinput.EchoPassword
	m.inputs[fieldSigner].EchoCharacter = '•'
	m.inputs[fieldItemID].Placeholder = "0x…"
	m.inputs[fieldItemID].CharLimit = 66

	m.description = textarea.New()
	m.description.ShowLineNumbers = false
	m.description.CharLimit = 4096
	m.description.SetHeight(4)

	if err := m.set(formValues{URL: opt.URL, Collection: opt.Collection}); err != nil {
		logging.Warnf("prefill form: %v", err)
	}
	m.inputs[fieldURL].Focus()
	return m
}

// set fills the inputs from v by field id; empty values are left alone.
func (m *formModel) set(v formValues) error {
	var raw map[string]any
	if err := mapstructure.Decode(v, &raw); err != nil {
		return err
	}
	for i, id := range fieldIDs {
		s, _ := raw[id].(string)
		if s == "" {
			continue
		}
		if i == fieldDescription {
			m.description.SetValue(s)
			continue
		}
		m.inputs[i].SetValue(s)
	}
	return nil
}

func (m formModel) Init() tea.Cmd { return textinput.Blink }

func (m formModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.resize()
		return m, nil

	case statusMsg:
		m.state = model.Status(msg).String()
		return m, waitForUpdate(m.updates)

	case doneMsg:
		m.submitting = false
		m.updates = nil
		if msg.err != nil {
			m.err = msg.err.Error()
			logging.Errorf("submission failed: %v", msg.err)
		} else {
			r := msg.receipt
			m.receipt = &r
		}
		return m, nil

	case spinner.TickMsg:
		if !m.submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case key.Matches(msg, m.keys.Next):
			return m, m.setFocus(m.focus + 1)
		case key.Matches(msg, m.keys.Prev):
			return m, m.setFocus(m.focus - 1)
		case key.Matches(msg, m.keys.Submit):
			return m, m.submit()
		case msg.Type == tea.KeyEnter && m.focus == fieldSubmit:
			return m, m.submit()
		case msg.Type == tea.KeyEnter && m.focus < fieldDescription:
			return m, m.setFocus(m.focus + 1)
		}
	}

	return m, m.updateFocused(msg)
}

func (m *formModel) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch {
	case m.focus < fieldDescription:
		before := m.inputs[m.focus].Value()
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		if m.focus == fieldSigner && m.inputs[fieldSigner].Value() != before {
			m.address = m.svc.SignerAddress(m.inputs[fieldSigner].Value())
		}
	case m.focus == fieldDescription:
		m.description, cmd = m.description.Update(msg)
	}
	return cmd
}

func (m *formModel) setFocus(i int) tea.Cmd {
	i = (i%fieldCount + fieldCount) % fieldCount
	switch {
	case m.focus < fieldDescription:
		m.inputs[m.focus].Blur()
	case m.focus == fieldDescription:
		m.description.Blur()
	}
	m.focus = i
	switch {
	case i < fieldDescription:
		return m.inputs[i].Focus()
	case i == fieldDescription:
		return m.description.Focus()
	}
	return nil
}

// values collects the inputs by id and decodes them into a Submission.
func (m *formModel) values() (model.Submission, error) {
	raw := make(map[string]any, len(fieldIDs))
	for i, id := range fieldIDs {
		if i == fieldDescription {
			raw[id] = m.description.Value()
			continue
		}
		raw[id] = m.inputs[i].Value()
	}
	var v formValues
	if err := mapstructure.Decode(raw, &v); err != nil {
		return model.Submission{}, err
	}
	return model.Submission{
		URL:       v.URL,
		SignerURI: v.Signer,
		Item: model.CollectionItem{
			CollectionID: v.Collection,
			ItemID:       v.ItemID,
			Description:  v.Description,
		},
	}, nil
}

func (m *formModel) submit() tea.Cmd {
	if m.submitting {
		return nil
	}
	m.err = ""
	m.receipt = nil
	sub, err := m.values()
	if err != nil {
		m.err = err.Error()
		return nil
	}

	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	ch := make(chan tea.Msg, 8)
	send := func(msg tea.Msg) {
		select {
		case ch <- msg:
		case <-ctx.Done():
		}
	}
	svc := m.svc
	go func() {
		defer close(ch)
		defer cancel()
		receipt, err := svc.Submit(ctx, sub, func(st model.Status) { send(statusMsg(st)) })
		send(doneMsg{receipt: receipt, err: err})
	}()

	m.submitting = true
	m.updates = ch
	m.state = i18n.T("state.submitting")
	return tea.Batch(waitForUpdate(ch), m.spinner.Tick)
}

func waitForUpdate(ch <-chan tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func (m *formModel) resize() {
	w := m.width - 6
	if w < 20 {
		w = 20
	}
	for i := range m.inputs {
		m.inputs[i].Width = w - 2
	}
	m.description.SetWidth(w)
}

func (m formModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(i18n.T("app.title")) + "\n")
	b.WriteString(mutedStyle.Render(i18n.T("app.intro")) + "\n")

	b.WriteString(sectionStyle.Render(i18n.T("section.settings")) + "\n")
	m.row(&b, "field.url", m.inputs[fieldURL].View())
	m.row(&b, "field.signer", m.inputs[fieldSigner].View())
	m.row(&b, "field.address", disabledStyle.Render("  "+m.address))
	m.row(&b, "field.collection", m.inputs[fieldCollection].View())

	b.WriteString(sectionStyle.Render(i18n.T("section.item")) + "\n")
	m.row(&b, "field.item_id", m.inputs[fieldItemID].View())
	m.row(&b, "field.description", m.description.View())

	button := buttonStyle
	if m.focus == fieldSubmit {
		button = buttonFocusedStyle
	}
	b.WriteString(button.Render(i18n.T("button.submit")) + "\n")

	if m.state != "" {
		line := i18n.Tf("state.label", map[string]any{"State": m.state})
		if m.submitting {
			line = m.spinner.View() + " " + line
		} else if m.receipt != nil {
			line = successStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	if m.err != "" {
		b.WriteString(errorStyle.Render(i18n.Tf("error.label", map[string]any{"Error": m.err})) + "\n")
	}
	b.WriteString("\n" + m.help.View(m.keys))

	return panelString(lipgloss.NewStyle().MaxWidth(m.width).Render(b.String()))
}

func (m formModel) row(b *strings.Builder, id, input string) {
	b.WriteString(labelStyle.Render(i18n.T(id)) + "\n")
	b.WriteString(input + "\n")
	b.WriteString(mutedStyle.Render(i18n.T(id+".doc")) + "\n")
}

// Run shows the form until the user quits.
func Run(ctx context.Context, svc Submitter, opt Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	p := tea.NewProgram(newForm(ctx, svc, opt), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
