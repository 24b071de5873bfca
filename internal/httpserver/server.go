// internal/httpserver/server.go
//
// HTTP server wiring for the guessing game.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, rate limit).
//   - Public endpoints: "/", "/health", "/difficulties".
//   - Round endpoints (optional auth): POST /game/new, POST /game/guess, GET /game/{id}.
//   - Daily challenge endpoints (optional auth): mounted under /daily.
//   - Auth + profile/stat endpoints: /auth/*, /stats/me, /games/mine.
//
// Notes:
//   - Live rounds sit in the in-memory store until they finish; the history store
//     keeps one row per round plus player counters and serves finished rounds.
//   - A fixed secret is accepted outside production only, and such rounds are
//     recorded unranked.
//   - History writes are best effort: a failed write is logged, never returned.

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/robalobadob/desktools/internal/auth"
	"github.com/robalobadob/desktools/internal/config"
	"github.com/robalobadob/desktools/internal/game"
	"github.com/robalobadob/desktools/internal/history"
	"github.com/robalobadob/desktools/internal/store"
)

// Server bundles router, live-round store and history.
type Server struct {
	r       *chi.Mux
	cfg     config.Config
	rounds  store.Store
	hist    *history.Store
	issuer  *auth.Issuer
	cookies auth.Cookies
	authmw  auth.Middleware
	limiter *ipLimiter
	daily   *dailyServer
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg config.Config, rounds store.Store, hist *history.Store) *Server {
	s := &Server{
		r:       chi.NewRouter(),
		cfg:     cfg,
		rounds:  rounds,
		hist:    hist,
		issuer:  auth.NewIssuer(cfg.JWTSecret, cfg.JWTExpiresDays),
		cookies: auth.Cookies{Name: cfg.CookieName, Secure: cfg.Production()},
		limiter: newIPLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}
	s.authmw = auth.Middleware{
		Issuer:  s.issuer,
		Cookies: s.cookies,
		Exists: func(ctx context.Context, id string) bool {
			_, err := hist.UserByID(ctx, id)
			return err == nil
		},
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(requestLogger)
	s.r.Use(jsonContentType)
	s.r.Use(corsFor(cfg.ClientOrigin))
	s.r.Use(s.limiter.middleware)

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service":   "desktools",
			"endpoints": []string{"/health", "/difficulties", "POST /game/new", "POST /game/guess", "/daily/*", "/auth/*"},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	s.r.Get("/difficulties", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, game.Difficulties())
	})

	// Round endpoints: guests can play
	s.r.Group(func(r chi.Router) {
		r.Use(s.authmw.Optional)
		r.Post("/game/new", s.handleNewGame)
		r.Post("/game/guess", s.handleGuess)
		r.Get("/game/{id}", s.handleGetGame)
		s.mountDaily(r)
	})

	s.mountAuthRoutes()

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})
	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.r, ReadHeaderTimeout: 5 * time.Second}
	return srv.ListenAndServe()
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ------------------------------ ROUNDS -------------------------------------

type newGameReq struct {
	Difficulty string `json:"difficulty"` // "1".."3" or easy/medium/hard; default medium
	Secret     int    `json:"secret"`     // fixed secret, development only; round is unranked
}

type newGameRes struct {
	GameID     string          `json:"gameId"`
	Difficulty game.Difficulty `json:"difficulty"`
}

// roundView is the public shape of a round; the secret is only revealed once finished.
type roundView struct {
	GameID       string          `json:"gameId"`
	Difficulty   game.Difficulty `json:"difficulty"`
	State        game.State      `json:"state"`
	AttemptsUsed int             `json:"attemptsUsed"`
	AttemptsLeft int             `json:"attemptsLeft"`
	Guesses      []int           `json:"guesses"`
	Secret       int             `json:"secret,omitempty"`
}

func viewOf(r *game.Round) roundView {
	v := roundView{
		GameID:       r.ID,
		Difficulty:   r.Difficulty,
		State:        r.State,
		AttemptsUsed: r.AttemptsUsed,
		AttemptsLeft: r.AttemptsLeft(),
		Guesses:      append([]int{}, r.Guesses...),
	}
	if r.Finished() {
		v.Secret = r.Secret
	}
	return v
}

// handleNewGame creates a live round and its history row (owned by the player
// or by the anonymous cookie).
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	_ = json.NewDecoder(r.Body).Decode(&req)

	d := game.Medium
	if req.Difficulty != "" {
		var err error
		if d, err = game.ParseDifficulty(req.Difficulty); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.Secret != 0 && s.cfg.Production() {
		writeError(w, http.StatusBadRequest, "fixed_secret_disabled")
		return
	}
	g, err := game.New(d, req.Secret)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.rounds.Save(r.Context(), g); err != nil {
		log.Error().Err(err).Msg("save round")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}

	row := history.Round{ID: g.ID, Difficulty: d.Key, Unranked: req.Secret != 0, StartedAt: time.Now()}
	if me := auth.PlayerFrom(r.Context()); me != nil {
		row.UserID = me.ID
	} else {
		row.AnonymousID = s.cookies.EnsureAnon(w, r)
	}
	if err := s.hist.InsertRound(r.Context(), row); err != nil {
		log.Warn().Err(err).Str("gameId", g.ID).Msg("insert round row")
	}

	writeJSON(w, http.StatusOK, newGameRes{GameID: g.ID, Difficulty: d})
}

type guessReq struct {
	GameID string `json:"gameId"`
	Guess  *int   `json:"guess"`
}

type guessRes struct {
	game.Evaluation
	roundView
}

// handleGuess applies a guess to a live round and mirrors progress into history.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Guess == nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}

	var (
		ev   game.Evaluation
		view roundView
	)
	err := s.rounds.Update(r.Context(), req.GameID, func(g *game.Round) error {
		var err error
		if ev, _, err = g.ApplyGuess(*req.Guess); err != nil {
			return err
		}
		view = viewOf(g)
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		if _, ok := s.archived(r.Context(), req.GameID); ok {
			err = game.ErrRoundOver
		}
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
		return
	case errors.Is(err, game.ErrRoundOver):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.recordProgress(r.Context(), view)
	writeJSON(w, http.StatusOK, guessRes{Evaluation: ev, roundView: view})
}

func (s *Server) recordProgress(ctx context.Context, v roundView) {
	if v.State == game.StatePlaying {
		if err := s.hist.RecordGuess(ctx, v.GameID, v.AttemptsUsed); err != nil {
			log.Warn().Err(err).Str("gameId", v.GameID).Msg("record guess")
		}
		return
	}
	if err := s.hist.FinishRound(ctx, v.GameID, string(v.State), v.AttemptsUsed, v.Secret); err != nil {
		// keep the live round so it can still be viewed
		log.Warn().Err(err).Str("gameId", v.GameID).Msg("finish round")
	} else if err := s.rounds.Delete(ctx, v.GameID); err != nil {
		log.Warn().Err(err).Str("gameId", v.GameID).Msg("evict round")
	}
	log.Info().Str("gameId", v.GameID).Str("state", string(v.State)).Int("attempts", v.AttemptsUsed).Msg("round finished")
}

// handleGetGame serves a live round, or a finished one from history.
func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var view roundView
	err := s.rounds.View(r.Context(), id, func(g *game.Round) error {
		view = viewOf(g)
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		var ok bool
		if view, ok = s.archived(r.Context(), id); ok {
			err = nil
		}
	}
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// archived rebuilds the view of a finished round from its history row.
// Individual guesses are not persisted, so Guesses is empty.
func (s *Server) archived(ctx context.Context, id string) (roundView, bool) {
	row, err := s.hist.RoundByID(ctx, id)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Warn().Err(err).Str("gameId", id).Msg("load round row")
		}
		return roundView{}, false
	}
	if row.Status == string(game.StatePlaying) {
		return roundView{}, false
	}
	d, err := game.ParseDifficulty(row.Difficulty)
	if err != nil {
		return roundView{}, false
	}
	return roundView{
		GameID:       row.ID,
		Difficulty:   d,
		State:        game.State(row.Status),
		AttemptsUsed: row.Attempts,
		AttemptsLeft: max(d.AttemptsMax-row.Attempts, 0),
		Guesses:      []int{},
		Secret:       row.Secret,
	}, true
}

// ------------------------------- AUTH --------------------------------------

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// mountAuthRoutes registers authentication + gated routes.
func (s *Server) mountAuthRoutes() {
	s.r.Post("/auth/signup", s.handleSignup)
	s.r.Post("/auth/login", s.handleLogin)
	s.r.Post("/auth/logout", s.handleLogout)

	s.r.Group(func(r chi.Router) {
		r.Use(s.authmw.Require)
		r.Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, auth.PlayerFrom(r.Context()))
		})
		r.Get("/stats/me", s.handleStats)
		r.Get("/games/mine", s.handleMyGames)
	})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	u, err := s.createPlayer(r.Context(), body.Username, body.Password)
	if errors.Is(err, auth.ErrUsernameTaken) {
		writeError(w, http.StatusConflict, "Username taken")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.startSession(w, r, u) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": u.ID, "username": u.Username, "createdAt": u.CreatedAt})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	u, err := s.hist.UserByUsername(r.Context(), auth.NormalizeUsername(body.Username))
	if err != nil || !auth.CheckPassword(u.PasswordHash, body.Password) {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if !s.startSession(w, r, u) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": u.ID, "username": u.Username})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.cookies.ClearAuth(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// startSession signs a token, sets the cookie and claims anonymous rounds.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, u *history.User) bool {
	tok, exp, err := s.issuer.Sign(u.ID, u.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return false
	}
	s.cookies.SetAuth(w, tok, exp)
	if err := s.hist.ClaimAnonRounds(r.Context(), s.cookies.EnsureAnon(w, r), u.ID); err != nil {
		log.Warn().Err(err).Msg("claim anon rounds")
	}
	return true
}

func (s *Server) createPlayer(ctx context.Context, username, pw string) (*history.User, error) {
	username = auth.NormalizeUsername(username)
	if err := auth.ValidateSignup(username, pw); err != nil {
		return nil, err
	}
	taken, err := s.hist.UsernameTaken(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, auth.ErrUsernameTaken
	}
	h, err := auth.HashPassword(pw)
	if err != nil {
		return nil, err
	}
	u := &history.User{ID: auth.NewID(), Username: username, PasswordHash: h, CreatedAt: time.Now().UTC()}
	if err := s.hist.CreateUser(ctx, *u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	me := auth.PlayerFrom(r.Context())
	u, err := s.hist.UserByID(r.Context(), me.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "not_found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":          u.ID,
		"gamesPlayed": u.GamesPlayed,
		"wins":        u.Wins,
		"streak":      u.Streak,
	})
}

func (s *Server) handleMyGames(w http.ResponseWriter, r *http.Request) {
	me := auth.PlayerFrom(r.Context())
	rows, err := s.hist.RecentRounds(r.Context(), me.ID, 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	// in-progress rounds must not leak their secret
	out := lo.Map(rows, func(row history.Round, _ int) history.Round {
		if row.Status == string(game.StatePlaying) {
			row.Secret = 0
		}
		return row
	})
	writeJSON(w, http.StatusOK, out)
}

// ------------------------------ responses ----------------------------------

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
