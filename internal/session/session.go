// Package session owns the live document of one editor and serialises every edit
// against it. All reads and writes go through the engine; the session only adds
// locking, composite edits, logging and optional autosave.
package session

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"bullet-cli/internal/engine"
	"bullet-cli/internal/logging"
	"bullet-cli/internal/model"

	"go.uber.org/zap"
)

// Saver persists a document state. store.Store satisfies it.
type Saver interface {
	SaveDocument(ctx context.Context, id string, st model.State) error
}

type Option func(*Session)

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.log = logging.OrNop(l) }
}

// WithAutosave flushes dirty state to saver every interval. An interval <= 0
// only saves on Flush and Close.
func WithAutosave(saver Saver, docID string, every time.Duration) Option {
	return func(s *Session) {
		s.saver = saver
		s.docID = docID
		s.every = every
	}
}

// WithInvariantChecks validates the document after every edit and panics on corruption.
func WithInvariantChecks() Option {
	return func(s *Session) { s.check = true }
}

type Session struct {
	mu       sync.Mutex
	state    model.State
	rev      uint64
	savedRev uint64

	log   *zap.Logger
	check bool

	saveMu sync.Mutex
	saver  Saver
	docID  string
	every  time.Duration

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// New starts a session on a fresh single-bullet document.
func New(opts ...Option) *Session {
	return Open(engine.InitialState(), opts...)
}

// Open starts a session on st. st is copied; later changes to it are not seen.
func Open(st model.State, opts ...Option) *Session {
	s := &Session{
		state: st.Clone(),
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.saver != nil && s.every > 0 {
		s.stop = make(chan struct{})
		s.done = make(chan struct{})
		go s.autosaveLoop()
	}
	return s
}

// Apply runs one command and returns the resulting state.
func (s *Session) Apply(cmd model.Command) model.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLocked(cmd)
	return s.state.Clone()
}

func (s *Session) applyLocked(cmd model.Command) bool {
	next := engine.Apply(s.state, cmd)
	changed := !reflect.DeepEqual(next, s.state)
	if s.check {
		if err := engine.CheckInvariants(next); err != nil {
			s.log.Error("edit produced an inconsistent document",
				zap.Stringer("kind", cmd.Kind), zap.Error(err))
			panic(&engine.InvariantError{Op: cmd.Kind.String(), Msg: err.Error()})
		}
	}
	s.state = next
	if changed {
		s.rev++
	}
	if ce := s.log.Check(zap.DebugLevel, "apply"); ce != nil {
		target := "<focused>"
		if cmd.TargetID != nil {
			target = *cmd.TargetID
		}
		ce.Write(zap.Stringer("kind", cmd.Kind), zap.String("target", target),
			zap.Bool("changed", changed), zap.Uint64("rev", s.rev))
	}
	return changed
}

// ApplyWire validates and decodes w, then applies it.
func (s *Session) ApplyWire(w model.WireCommand) (model.State, error) {
	cmd, err := DecodeCommand(w)
	if err != nil {
		return model.State{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// The engine accepts any scope id; callers outside the editor get an error instead.
	if cmd.Kind == model.CmdSetScopeRoot && cmd.ScopeRootID != nil && !s.state.Has(*cmd.ScopeRootID) {
		return model.State{}, fmt.Errorf("scope root %s does not exist", *cmd.ScopeRootID)
	}
	s.applyLocked(cmd)
	return s.state.Clone(), nil
}

func (s *Session) State() model.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Revision counts edits that changed the document.
func (s *Session) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rev
}

func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rev != s.savedRev
}

func (s *Session) Text(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.state.Node(id); ok {
		return n.Text
	}
	return ""
}

func (s *Session) Children(id string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.state.Node(id); ok {
		return append([]string{}, n.Children...)
	}
	return nil
}

func (s *Session) Roots() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.state.RootOrder...)
}

// Focus returns the focused node and caret.
func (s *Session) Focus() (string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.FocusedID, s.state.Caret
}

func (s *Session) ScopeRoot() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Scope()
}

func (s *Session) VisibleOrder() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return engine.VisibleOrder(s.state)
}

func (s *Session) VisibleRows() []engine.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return engine.VisibleRows(s.state)
}

func (s *Session) PrevVisible(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return engine.PrevVisible(s.state, id)
}

func (s *Session) NextVisible(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return engine.NextVisible(s.state, id)
}

func (s *Session) AncestorsToRoot(id string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return engine.AncestorsToRoot(s.state, id)
}

// SetText replaces the text of id.
func (s *Session) SetText(id, text string) model.State {
	return s.Apply(model.NewCommand(model.CmdSetText).On(id).WithText(text))
}

// SetFocus moves focus to id with the caret clamped into its text.
func (s *Session) SetFocus(id string, caret int) model.State {
	return s.Apply(model.NewCommand(model.CmdSetFocus).On(id).AtCaret(caret))
}

// InsertAtCaret types text into the focused node at the caret and advances the caret.
func (s *Session) InsertAtCaret(text string) model.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertAtCaretLocked(text)
	return s.state.Clone()
}

func (s *Session) insertAtCaretLocked(text string) {
	id, caret := s.state.FocusedID, s.state.Caret
	n, ok := s.state.Node(id)
	if !ok || text == "" {
		return
	}
	runes := []rune(n.Text)
	if caret > len(runes) {
		caret = len(runes)
	}
	updated := string(runes[:caret]) + text + string(runes[caret:])
	s.applyLocked(model.NewCommand(model.CmdSetText).On(id).WithText(updated))
	s.applyLocked(model.NewCommand(model.CmdSetFocus).On(id).AtCaret(caret + utf8.RuneCountInString(text)))
}

// DeleteBackward removes the rune before the caret of the focused node.
func (s *Session) DeleteBackward() model.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, caret := s.state.FocusedID, s.state.Caret
	if n, ok := s.state.Node(id); ok && caret > 0 {
		runes := []rune(n.Text)
		if caret > len(runes) {
			caret = len(runes)
		}
		s.applyLocked(model.NewCommand(model.CmdSetText).On(id).WithText(string(runes[:caret-1]) + string(runes[caret:])))
		s.applyLocked(model.NewCommand(model.CmdSetFocus).On(id).AtCaret(caret - 1))
	}
	return s.state.Clone()
}

// DeleteForward removes the rune after the caret of the focused node.
func (s *Session) DeleteForward() model.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, caret := s.state.FocusedID, s.state.Caret
	if n, ok := s.state.Node(id); ok {
		runes := []rune(n.Text)
		if caret < len(runes) {
			s.applyLocked(model.NewCommand(model.CmdSetText).On(id).WithText(string(runes[:caret]) + string(runes[caret+1:])))
			s.applyLocked(model.NewCommand(model.CmdSetFocus).On(id).AtCaret(caret))
		}
	}
	return s.state.Clone()
}

// Paste inserts text into the focused node. The first line goes in at the caret;
// every further line becomes a new sibling after the previous one (a leading child
// when the focus is the scope heading), and focus ends at the start of the last line.
func (s *Session) Paste(text string) model.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")

	s.insertAtCaretLocked(lines[0])
	after := s.state.FocusedID
	rest := lines[1:]

	// On the scope heading the extra lines become its leading children, so they
	// stay inside the zoomed-in view.
	if scope, ok := s.state.Scope(); ok && after == scope && len(rest) > 0 {
		existing := len(s.state.Nodes[scope].Children)
		s.applyLocked(model.NewCommand(model.CmdAppendEmptyChild).On(scope))
		after = s.state.FocusedID
		for i := 0; i < existing; i++ {
			s.applyLocked(model.NewCommand(model.CmdMoveUp).On(after))
		}
		s.applyLocked(model.NewCommand(model.CmdSetText).On(after).WithText(rest[0]))
		rest = rest[1:]
	}
	for _, line := range rest {
		s.applyLocked(model.NewCommand(model.CmdInsertEmptySiblingAfter).On(after))
		after = s.state.FocusedID
		s.applyLocked(model.NewCommand(model.CmdSetText).On(after).WithText(line))
	}
	if len(lines) > 1 {
		s.applyLocked(model.NewCommand(model.CmdSetFocus).On(after).AtCaret(0))
	}
	return s.state.Clone()
}

// DrillDown makes id the scope root and focuses an empty trailing child of it,
// appending one when the last child has text. It reports false when id is unknown.
func (s *Session) DrillDown(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.state.Node(id)
	if !ok {
		return false
	}
	s.applyLocked(model.NewCommand(model.CmdSetScopeRoot).Scoped(id))

	if len(n.Children) == 0 || s.state.Nodes[n.Children[len(n.Children)-1]].Text != "" {
		s.applyLocked(model.NewCommand(model.CmdAppendEmptyChild).On(id))
	} else {
		s.applyLocked(model.NewCommand(model.CmdSetFocus).On(n.Children[len(n.Children)-1]).AtCaret(0))
	}
	s.log.Debug("drill down", zap.String("scope", id))
	return true
}

// DrillUp widens the scope to the parent of the current scope root, or clears
// it at the top level. It reports false when no scope is set.
func (s *Session) DrillUp() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	scope, ok := s.state.Scope()
	if !ok {
		return false
	}
	parent := ""
	if n, ok := s.state.Node(scope); ok {
		parent = n.ParentID
	}
	s.applyLocked(model.NewCommand(model.CmdSetScopeRoot).Scoped(parent))
	s.log.Debug("drill up", zap.String("from", scope), zap.String("to", parent))
	return true
}

// Flush saves the document if it changed since the last save.
func (s *Session) Flush(ctx context.Context) error {
	if s.saver == nil {
		return nil
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if s.rev == s.savedRev {
		s.mu.Unlock()
		return nil
	}
	st, rev := s.state.Clone(), s.rev
	s.mu.Unlock()

	if err := s.saver.SaveDocument(ctx, s.docID, st); err != nil {
		s.log.Warn("save failed", zap.String("docID", s.docID), zap.Error(err))
		return err
	}

	s.mu.Lock()
	s.savedRev = rev
	s.mu.Unlock()
	s.log.Debug("saved", zap.String("docID", s.docID), zap.Uint64("rev", rev))
	return nil
}

func (s *Session) autosaveLoop() {
	defer close(s.done)
	t := time.NewTicker(s.every)
	defer t.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			_ = s.Flush(ctx)
			cancel()
		}
	}
}

// Close stops autosave and flushes any unsaved change. It is safe to call twice.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.stop != nil {
			close(s.stop)
			<-s.done
		}
		s.closeErr = s.Flush(context.Background())
	})
	return s.closeErr
}
