// internal/httpserver/routes_daily.go
//
// HTTP routes for the daily challenge.
// Exposes three endpoints under /daily:
//   - POST /daily/new         → start (or resume) today's round for a difficulty
//   - POST /daily/guess       → submit a guess for today's round
//   - GET  /daily/leaderboard → top 20 winners for a date and difficulty
//
// Each player gets one round per day and difficulty. Sessions are held in
// memory for the current date only; wins are persisted to daily_results.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/desktools/internal/auth"
	"github.com/robalobadob/desktools/internal/daily"
	"github.com/robalobadob/desktools/internal/game"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	store    *daily.Store
	salt     string
	now      func() time.Time
	sessions map[string]*dailySession // keyed by player|date|difficulty
	mu       sync.Mutex               // guards sessions and the rounds they hold
}

// dailySession holds transient state for today's round.
type dailySession struct {
	Round  *game.Round
	UserID string
	Date   string
	Start  time.Time
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	dd := &dailyServer{
		srv:      s,
		store:    daily.NewStore(s.hist.DB()),
		salt:     s.cfg.DailySalt,
		now:      time.Now,
		sessions: make(map[string]*dailySession),
	}
	s.daily = dd
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", dd.handleNew)
		r.Post("/guess", dd.handleGuess)
		r.Get("/leaderboard", dd.handleLeaderboard)
	})
}

// playerID returns the authenticated player ID or the anonymous cookie id.
func (d *dailyServer) playerID(w http.ResponseWriter, r *http.Request) string {
	if me := auth.PlayerFrom(r.Context()); me != nil {
		return me.ID
	}
	return d.srv.cookies.EnsureAnon(w, r)
}

func sessionKey(uid, date string, diff game.Difficulty) string {
	return uid + "|" + date + "|" + diff.Key
}

// -----------------------------------------------------------------------------
// /daily/new

type dailyNewReq struct {
	Difficulty string `json:"difficulty"`
}

type dailyNewRes struct {
	GameID     string          `json:"gameId"`
	Date       string          `json:"date"`
	Difficulty game.Difficulty `json:"difficulty"`
	Played     bool            `json:"played"`
}

// handleNew creates or reuses today's session.
// - A persisted result for today → Played=true, no round.
// - Otherwise reuse the in-memory session or start one on the daily secret.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	var req dailyNewReq
	_ = json.NewDecoder(r.Body).Decode(&req)
	diff := game.Medium
	if req.Difficulty != "" {
		var err error
		if diff, err = game.ParseDifficulty(req.Difficulty); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	uid := d.playerID(w, r)
	now := d.now()
	date := daily.DateKey(now)

	played, err := d.store.AlreadyPlayed(r.Context(), uid, date, diff.Key)
	if err != nil {
		log.Warn().Err(err).Str("user", uid).Str("date", date).Msg("check daily result")
	}
	if played {
		writeJSON(w, http.StatusOK, dailyNewRes{Date: date, Difficulty: diff, Played: true})
		return
	}

	key := sessionKey(uid, date, diff)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pruneLocked(date)
	if sess, ok := d.sessions[key]; ok {
		writeJSON(w, http.StatusOK, dailyNewRes{GameID: sess.Round.ID, Date: date, Difficulty: diff, Played: sess.Round.Finished()})
		return
	}
	round, err := game.New(diff, daily.SecretFor(now, d.salt, diff))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "start_failed")
		return
	}
	d.sessions[key] = &dailySession{Round: round, UserID: uid, Date: date, Start: now}
	writeJSON(w, http.StatusOK, dailyNewRes{GameID: round.ID, Date: date, Difficulty: diff})
}

// pruneLocked drops sessions from earlier dates. Caller holds d.mu.
func (d *dailyServer) pruneLocked(today string) {
	for k, sess := range d.sessions {
		if sess.Date != today {
			delete(d.sessions, k)
		}
	}
}

// -----------------------------------------------------------------------------
// /daily/guess

type dailyGuessReq struct {
	GameID     string `json:"gameId"`
	Difficulty string `json:"difficulty"`
	Guess      *int   `json:"guess"`
}

type dailyGuessRes struct {
	game.Evaluation
	State        string `json:"state"` // playing | won | lost | locked
	AttemptsUsed int    `json:"attemptsUsed"`
	AttemptsLeft int    `json:"attemptsLeft"`
}

// handleGuess applies a guess to today's session; wins are persisted.
func (d *dailyServer) handleGuess(w http.ResponseWriter, r *http.Request) {
	var p dailyGuessReq
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.GameID == "" || p.Guess == nil {
		writeError(w, http.StatusBadRequest, "invalid")
		return
	}
	diff := game.Medium
	if p.Difficulty != "" {
		var err error
		if diff, err = game.ParseDifficulty(p.Difficulty); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	uid := d.playerID(w, r)
	date := daily.DateKey(d.now())

	d.mu.Lock()
	sess, ok := d.sessions[sessionKey(uid, date, diff)]
	if !ok || sess.Round.ID != p.GameID {
		d.mu.Unlock()
		writeError(w, http.StatusConflict, "no session")
		return
	}
	if sess.Round.Finished() {
		res := dailyGuessRes{State: "locked", AttemptsUsed: sess.Round.AttemptsUsed}
		d.mu.Unlock()
		writeJSON(w, http.StatusOK, res)
		return
	}
	ev, state, err := sess.Round.ApplyGuess(*p.Guess)
	used, left := sess.Round.AttemptsUsed, sess.Round.AttemptsLeft()
	d.mu.Unlock()

	if errors.Is(err, game.ErrOutOfRange) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	if state == game.StateWon {
		elapsed := int(d.now().Sub(sess.Start).Milliseconds())
		if err := d.store.InsertResult(r.Context(), daily.Result{
			UserID: uid, Date: date, Difficulty: diff.Key, Attempts: used, ElapsedMs: elapsed,
		}); err != nil {
			log.Warn().Err(err).Str("user", uid).Msg("insert daily result")
		}
	}
	writeJSON(w, http.StatusOK, dailyGuessRes{Evaluation: ev, State: string(state), AttemptsUsed: used, AttemptsLeft: left})
}

// -----------------------------------------------------------------------------
// /daily/leaderboard

type lbRes struct {
	Date       string        `json:"date"`
	Difficulty string        `json:"difficulty"`
	Top        []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the board for ?date= (default today) and ?difficulty= (default medium).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(d.now())
	}
	diff := game.Medium
	if q := r.URL.Query().Get("difficulty"); q != "" {
		var err error
		if diff, err = game.ParseDifficulty(q); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	rows, err := d.store.Leaderboard(r.Context(), date, diff.Key, 20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, lbRes{Date: date, Difficulty: diff.Key, Top: rows})
}
