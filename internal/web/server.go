// Package web serves a read-only browser view of one feis schedule board.
// It renders the same geometry the interactive clients use as absolutely
// positioned HTML and keeps open pages current by streaming re-rendered
// board fragments over a datastar SSE connection whenever the upstream
// schedule changes.
package web

import (
	"context"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/starfederation/datastar-go/datastar"

	"feisboard/internal/feisapi"
	"feisboard/internal/model"
)

//go:embed templates/*.html static/*.css
var assetsFS embed.FS

type Config struct {
	Addr   string
	FeisID string

	// Timeline sets the grid the page draws. Zero means the model defaults.
	Timeline model.TimelineConfig

	// PollInterval controls how often the upstream schedule is refetched.
	// Zero means the 2 second default.
	PollInterval time.Duration
}

type Server struct {
	cfg    Config
	client *feisapi.Client
	logger *log.Logger
	tmpl   *template.Template

	bc *boardBroadcaster
}

func NewServer(cfg Config, client *feisapi.Client, logger *log.Logger) (*Server, error) {
	if strings.TrimSpace(cfg.FeisID) == "" {
		return nil, errors.New("web: feis id is required")
	}
	if client == nil {
		return nil, errors.New("web: api client is required")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.Timeline == (model.TimelineConfig{}) {
		cfg.Timeline = model.DefaultTimelineConfig()
	}

	tmpl, err := template.New("base").ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	srv := &Server{
		cfg:    cfg,
		client: client,
		logger: logger,
		tmpl:   tmpl,
		bc:     newBoardBroadcaster(client, cfg.FeisID, cfg.PollInterval, logger),
	}
	go srv.bc.watchLoop()
	return srv, nil
}

func (s *Server) Addr() string { return s.cfg.Addr }

// Close stops the background schedule poller.
func (s *Server) Close() { s.bc.Stop() }

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /events", s.handleBoardEvents)
	mux.HandleFunc("GET /static/app.css", s.handleAppCSS)
	mux.HandleFunc("GET /", s.handleHome)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleAppCSS(w http.ResponseWriter, r *http.Request) {
	b, err := assetsFS.ReadFile("static/app.css")
	if err != nil || len(b) == 0 {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	vm := s.boardVM()
	vm.StreamURL = "/events"
	s.writeHTMLTemplate(w, "board.html", vm)
}

func (s *Server) handleBoardEvents(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	_ = sse.MarshalAndPatchSignals(map[string]any{"boardVersion": s.bc.currentFingerprint()})

	ch, cancel := s.bc.hub.subscribe()
	defer cancel()

	keepAlive := time.NewTicker(25 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-sse.Context().Done():
			return
		case <-keepAlive.C:
			_ = sse.PatchSignals([]byte(`{}`))
		case <-ch:
			html, err := s.renderTemplate("board_main", s.boardVM())
			if err != nil {
				_ = sse.ExecuteScript(fmt.Sprintf(`console.error(%q)`, err.Error()))
				continue
			}
			_ = sse.PatchElements(html,
				datastar.WithSelector("#board-main"),
				datastar.WithMode(datastar.ElementPatchModeOuter))
			_ = sse.MarshalAndPatchSignals(map[string]any{"boardVersion": s.bc.currentFingerprint()})
		}
	}
}

func (s *Server) boardVM() boardVM {
	snap, ri, err := s.bc.current(context.Background())
	if err != nil {
		return boardVM{
			FeisID:    s.cfg.FeisID,
			Now:       time.Now().Format("15:04"),
			LoadError: err.Error(),
		}
	}
	vm := buildBoardVM(s.cfg.FeisID, s.cfg.Timeline, snap, ri)
	vm.Now = time.Now().Format("15:04")
	return vm
}

func (s *Server) renderTemplate(name string, data any) (string, error) {
	var b strings.Builder
	if err := s.tmpl.ExecuteTemplate(&b, name, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (s *Server) writeHTMLTemplate(w http.ResponseWriter, name string, data any) {
	html, err := s.renderTemplate(name, data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, html)
}

type boardHub struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

func newBoardHub() *boardHub {
	return &boardHub{subs: map[chan struct{}]struct{}{}}
}

func (h *boardHub) subscribe() (ch chan struct{}, cancel func()) {
	ch = make(chan struct{}, 8)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
		close(ch)
	}
}

func (h *boardHub) broadcast() {
	h.mu.Lock()
	for ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	h.mu.Unlock()
}

// boardBroadcaster polls the schedule API and wakes SSE subscribers when the
// snapshot changes. Change detection hashes the snapshot JSON, so a save that
// round-trips to identical state wakes nobody. The roster is fetched once on
// first success and cached; names change rarely enough that a restart is an
// acceptable refresh path.
type boardBroadcaster struct {
	client   *feisapi.Client
	feisID   string
	interval time.Duration
	logger   *log.Logger
	hub      *boardHub

	mu     sync.Mutex
	snap   *feisapi.ScheduleSnapshot
	roster *rosterIndex
	fp     string

	stopOnce sync.Once
	stopCh   chan struct{}
}

func newBoardBroadcaster(client *feisapi.Client, feisID string, interval time.Duration, logger *log.Logger) *boardBroadcaster {
	return &boardBroadcaster{
		client:   client,
		feisID:   feisID,
		interval: interval,
		logger:   logger,
		hub:      newBoardHub(),
		stopCh:   make(chan struct{}),
	}
}

func (b *boardBroadcaster) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopCh)
	})
}

func (b *boardBroadcaster) currentFingerprint() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fp
}

// current returns the latest polled snapshot, fetching synchronously when the
// poller has not succeeded yet (first page load racing the first tick).
func (b *boardBroadcaster) current(ctx context.Context) (*feisapi.ScheduleSnapshot, rosterIndex, error) {
	b.mu.Lock()
	snap, roster := b.snap, b.roster
	b.mu.Unlock()
	if snap != nil && roster != nil {
		return snap, *roster, nil
	}
	if err := b.poll(ctx); err != nil {
		return nil, rosterIndex{}, err
	}
	b.mu.Lock()
	snap, roster = b.snap, b.roster
	b.mu.Unlock()
	return snap, *roster, nil
}

func (b *boardBroadcaster) poll(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	snap, err := b.client.Schedule(ctx, b.feisID)
	if err != nil {
		return err
	}

	b.mu.Lock()
	haveRoster := b.roster != nil
	b.mu.Unlock()

	var roster *rosterIndex
	if !haveRoster {
		adjs, err := b.client.Adjudicators(ctx)
		if err != nil {
			return err
		}
		panels, err := b.client.Panels(ctx)
		if err != nil {
			return err
		}
		ri := newRosterIndex(adjs, panels)
		roster = &ri
	}

	fp, err := snapshotFingerprint(snap)
	if err != nil {
		return err
	}

	b.mu.Lock()
	changed := fp != b.fp
	b.snap = snap
	if roster != nil {
		b.roster = roster
	}
	b.fp = fp
	b.mu.Unlock()

	if changed {
		b.hub.broadcast()
	}
	return nil
}

func (b *boardBroadcaster) watchLoop() {
	t := time.NewTicker(b.interval)
	defer t.Stop()

	for {
		select {
		case <-b.stopCh:
			return
		case <-t.C:
		}
		if err := b.poll(context.Background()); err != nil {
			if b.logger != nil {
				b.logger.Debug("schedule poll failed", "feis", b.feisID, "err", err)
			}
		}
	}
}

func snapshotFingerprint(snap *feisapi.ScheduleSnapshot) (string, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:8]), nil
}
