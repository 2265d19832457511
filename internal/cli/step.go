package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/circuitry/pkg/circuit"
	"github.com/matzehuels/circuitry/pkg/pipeline"
	"github.com/matzehuels/circuitry/pkg/points"
)

// stepCommand creates the step command, an interactive view of the
// connection driver.
func (c *CLI) stepCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step <file>",
		Short: "Step through connections one pair at a time",
		Long: `Step opens an interactive view of the connection driver.

Keys:
  n, space   consider the next closest pair
  j          advance to the next pair that merges two circuits
  b          advance by the connection budget (-n)
  a          advance until all points share one circuit
  q          quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config(cmd, "connections", "tracker")
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			s, err := points.ReadFile(args[0])
			if err != nil {
				return err
			}
			tracker, err := circuit.NewTracker(circuit.TrackerKind(cfg.Tracker), s.Len())
			if err != nil {
				return err
			}
			d, err := circuit.NewDriver(ctx, s, circuit.WithTracker(tracker))
			if err != nil {
				return err
			}

			p := tea.NewProgram(newStepModel(args[0], d, cfg.Connections), tea.WithContext(ctx))
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().IntP("connections", "n", pipeline.DefaultConnections, "pairs consumed by the b key")
	cmd.Flags().String("tracker", string(pipeline.DefaultTracker), "connectivity tracker: unionfind (default), adjacency")

	return cmd
}

// stepRecent is the number of recent pairs shown.
const stepRecent = 8

// stepModel is the bubbletea model for the step command.
type stepModel struct {
	input  string
	driver *circuit.Driver
	budget int
	recent []circuit.Join
	done   bool
}

func newStepModel(input string, d *circuit.Driver, budget int) stepModel {
	return stepModel{input: input, driver: d, budget: budget, done: d.Remaining() == 0}
}

func (m stepModel) Init() tea.Cmd {
	return nil
}

func (m stepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "n", " ", "enter":
		m.advance(func(circuit.Join) bool { return true })
	case "j":
		m.advance(func(j circuit.Join) bool { return j.Merged })
	case "b":
		left := m.budget
		m.advance(func(circuit.Join) bool { left--; return left <= 0 })
	case "a":
		m.advance(func(j circuit.Join) bool { return j.Circuits == 1 && j.Merged })
	}
	return m, nil
}

// advance pops pairs until stop returns true or the queue is empty.
func (m *stepModel) advance(stop func(circuit.Join) bool) {
	if m.done {
		return
	}
	for {
		j, ok := m.driver.Step()
		if !ok {
			m.done = true
			return
		}
		m.recent = append(m.recent, j)
		if len(m.recent) > stepRecent {
			m.recent = m.recent[len(m.recent)-stepRecent:]
		}
		if m.driver.Remaining() == 0 || m.driver.Tracker().Count() == 1 {
			m.done = true
		}
		if m.done || stop(j) {
			return
		}
	}
}

func (m stepModel) View() string {
	var b strings.Builder
	d := m.driver
	t := d.Tracker()

	b.WriteString(StyleTitle.Render("circuitry step " + m.input))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("n next  j next join  b budget  a all  q quit"))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("%s %s  %s %s  %s %s  %s %s\n",
		StyleDim.Render("considered"), StyleNumber.Render(fmt.Sprint(d.Considered())),
		StyleDim.Render("joins"), StyleNumber.Render(fmt.Sprint(d.Joins())),
		StyleDim.Render("circuits"), StyleNumber.Render(fmt.Sprint(t.Count())),
		StyleDim.Render("remaining"), StyleNumber.Render(fmt.Sprint(d.Remaining()))))
	b.WriteString(fmt.Sprintf("%s %s\n\n",
		StyleDim.Render("top three product"),
		StyleNumber.Render(fmt.Sprint(circuit.TopThreeSizesProduct(t)))))

	for _, j := range m.recent {
		style, mark := styleSkipped, "skip"
		if j.Merged {
			style, mark = styleMerged, "join"
		}
		b.WriteString(style.Render(fmt.Sprintf("%5d  %-4s %s %s %s  d=%d", j.Seq, mark, j.P, iconArrow, j.Q, j.Distance)))
		b.WriteString("\n")
	}
	if len(m.recent) > 0 {
		b.WriteString("\n")
	}

	b.WriteString(sizesTable(t.Sizes(), 6))
	b.WriteString("\n")
	if m.done {
		b.WriteString(StyleTitle.Render(m.summary()))
		b.WriteString("\n")
	}
	return b.String()
}

func (m stepModel) summary() string {
	if m.driver.Tracker().Count() == 1 && len(m.recent) > 0 {
		last := m.recent[len(m.recent)-1]
		return fmt.Sprintf("single circuit: last pair %s %s %s", last.P, iconArrow, last.Q)
	}
	return "no more pairs"
}
