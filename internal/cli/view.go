package cli

import (
	"fmt"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/canopyviz/canopy/pkg/layout"
	"github.com/canopyviz/canopy/pkg/materialize"
	"github.com/canopyviz/canopy/pkg/pipeline"
	"github.com/canopyviz/canopy/pkg/source"
	"github.com/canopyviz/canopy/pkg/tree"
)

// viewCommand creates the interactive tree browser command.
func (c *CLI) viewCommand() *cobra.Command {
	var (
		data  string
		chunk int
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Browse the tree interactively in the terminal",
		Long:  `View rebuilds the tree and opens a terminal browser. Expanding a large subtree commits its nodes in batches so the interface stays responsive; toggling again mid-materialization cancels the in-flight batches and starts over.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			runner, err := c.newRunner(ctx, true)
			if err != nil {
				return err
			}
			defer runner.Close()

			path := c.dataPath(data)
			records, err := runner.Load(ctx, pipeline.Options{Data: path, Logger: logger})
			if err != nil {
				return err
			}
			if chunk == 0 {
				chunk = c.cfg.Materialize.ChunkSize
			}

			model := newTreeModel(tree.Build(records), treeModelOptions{
				spacingX: c.cfg.Layout.SpacingX,
				spacingY: c.cfg.Layout.SpacingY,
				chunk:    chunk,
			})

			if watch {
				w := source.NewWatcher(path, func() {
					select {
					case model.reloads <- struct{}{}:
					default:
					}
				})
				if err := w.Start(); err != nil {
					return fmt.Errorf("watch %s: %w", path, err)
				}
				defer w.Close()
				model.dataPath = path
			}

			p := tea.NewProgram(model)
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "input record file (defaults to config)")
	cmd.Flags().IntVar(&chunk, "chunk", 0, "nodes per materialization batch (defaults to config)")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload when the record file changes")

	return cmd
}

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// viewFrame is one committed batch tagged with the materialization
// generation that produced it. Frames from a cancelled generation are
// discarded on arrival.
type viewFrame struct {
	gen      int
	nodes    []materialize.NodeDescriptor
	progress int
}

type frameMsg viewFrame

type reloadMsg struct{}

type treeModelOptions struct {
	spacingX float64
	spacingY float64
	chunk    int
}

// treeModel is the bubbletea model for the interactive tree browser.
type treeModel struct {
	tree     *tree.Tree
	engine   *layout.Engine
	mat      *materialize.Materializer
	expanded tree.ExpandedSet

	// rows is the committed node prefix of the current generation, in
	// creation order.
	rows     []materialize.NodeDescriptor
	progress int
	gen      int

	frames   chan viewFrame
	reloads  chan struct{}
	quit     chan struct{}
	quitOnce sync.Once

	dataPath string

	cursor int
	offset int
	height int
}

func newTreeModel(t *tree.Tree, opts treeModelOptions) *treeModel {
	return &treeModel{
		tree:     t,
		engine:   layout.NewEngine(layout.WithSpacing(opts.spacingX, opts.spacingY)),
		mat:      materialize.New(opts.chunk, materialize.Interval{}),
		expanded: tree.CollapseAll(t),
		frames:   make(chan viewFrame, 64),
		reloads:  make(chan struct{}, 1),
		quit:     make(chan struct{}),
		height:   20,
	}
}

func (m *treeModel) Init() tea.Cmd {
	m.refresh()
	cmds := []tea.Cmd{m.waitForFrame()}
	if m.dataPath != "" {
		cmds = append(cmds, m.waitForReload())
	}
	return tea.Batch(cmds...)
}

// refresh starts a new materialization generation for the current
// expanded set, cancelling any in-flight one.
func (m *treeModel) refresh() {
	m.gen++
	gen := m.gen
	visible := tree.ComputeVisible(m.tree, m.expanded)
	positions := m.engine.Layout(m.tree)
	nodes, edges := materialize.Candidates(m.tree, visible, positions, m.expanded)

	// The send must not drop: losing a generation's terminal frame
	// would strand the view below progress 100. The scheduler runs
	// each commit on its own timer goroutine, so blocking here only
	// delays the next batch, and quit unblocks a commit in flight
	// when the program exits.
	m.mat.Run(nodes, edges, func(nodes []materialize.NodeDescriptor, _ []materialize.EdgeDescriptor, progress int) {
		select {
		case m.frames <- viewFrame{gen: gen, nodes: nodes, progress: progress}:
		case <-m.quit:
		}
	})
}

// waitForFrame blocks until the next committed batch arrives.
func (m *treeModel) waitForFrame() tea.Cmd {
	return func() tea.Msg {
		return frameMsg(<-m.frames)
	}
}

// waitForReload blocks until the watcher reports a file change.
func (m *treeModel) waitForReload() tea.Cmd {
	return func() tea.Msg {
		<-m.reloads
		return reloadMsg{}
	}
}

func (m *treeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		if msg.gen == m.gen {
			m.rows = msg.nodes
			m.progress = msg.progress
			m.clampCursor()
		}
		return m, m.waitForFrame()

	case reloadMsg:
		if m.dataPath != "" {
			if records, err := source.LoadRecords(m.dataPath); err == nil {
				m.tree = tree.Build(records)
				// Expanded ids that survive the rebuild keep their state;
				// ids for removed nodes are inert.
				m.refresh()
			}
		}
		return m, m.waitForReload()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.mat.Cancel()
			m.quitOnce.Do(func() { close(m.quit) })
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter", " ":
			if m.cursor < len(m.rows) {
				row := m.rows[m.cursor]
				if row.HasChildren {
					m.expanded = tree.Toggle(m.expanded, row.ID)
					m.refresh()
				}
			}
		case "E":
			m.expanded = tree.ExpandAll(m.tree)
			m.refresh()
		case "C":
			m.expanded = tree.CollapseAll(m.tree)
			m.cursor, m.offset = 0, 0
			m.refresh()
		}

	case tea.WindowSizeMsg:
		m.height = msg.Height - 5
		if m.height < 5 {
			m.height = 5
		}
		m.clampCursor()
	}
	return m, nil
}

func (m *treeModel) clampCursor() {
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.offset > m.cursor {
		m.offset = m.cursor
	}
}

func (m *treeModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Canopy"))
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %d/%d nodes", len(m.rows), m.tree.NodeCount())))
	if m.progress < 100 {
		b.WriteString(StyleWarning.Render(fmt.Sprintf("  materializing %d%%", m.progress)))
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ toggle  E expand all  C collapse all  q quit"))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > len(m.rows) {
		end = len(m.rows)
	}

	for i := m.offset; i < end; i++ {
		row := m.rows[i]
		level := 0
		if n, ok := m.tree.Node(row.ID); ok {
			level = n.Level
		}

		marker := "  "
		if row.HasChildren {
			if row.Expanded {
				marker = "▾ "
			} else {
				marker = "▸ "
			}
		}

		line := strings.Repeat("  ", level) + marker + row.Label
		if i == m.cursor {
			b.WriteString(listSelectedStyle.Render("▸ " + line))
		} else {
			b.WriteString(listNormalStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}

	return b.String()
}
