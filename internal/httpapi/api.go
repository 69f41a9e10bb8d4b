// Package httpapi exposes the game over a JSON HTTP API and serves the
// client's static files. Handlers touch game state only through the strand.
package httpapi

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/dogwalk/server/internal/game"
	"github.com/dogwalk/server/internal/geom"
	"github.com/dogwalk/server/internal/persist"
	"github.com/dogwalk/server/internal/strand"
)

const (
	defaultRecordLimit = 100
	maxRecordLimit     = 100
)

var tokenPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

// Records is the scoreboard read side; queries run off the strand because
// they only touch the database.
type Records interface {
	GetRecords(ctx context.Context, limit, offset int) ([]persist.RecordRow, error)
}

type Handler struct {
	game    *game.Game
	strand  *strand.Strand
	records Records
	static  http.Handler
	log     *zap.Logger
}

func New(g *game.Game, s *strand.Strand, records Records, wwwRoot string, log *zap.Logger) *Handler {
	return &Handler{
		game:    g,
		strand:  s,
		records: records,
		static:  newStaticHandler(wwwRoot),
		log:     log,
	}
}

// Routes builds the full server handler: the API under /api/v1/ and static
// files everywhere else, wrapped in request logging.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/maps", h.handleMaps)
	mux.HandleFunc("/api/v1/maps/", h.handleMapByID)
	mux.HandleFunc("/api/v1/game/join", h.handleJoin)
	mux.HandleFunc("/api/v1/game/players", h.handlePlayers)
	mux.HandleFunc("/api/v1/game/state", h.handleState)
	mux.HandleFunc("/api/v1/game/player/action", h.handleAction)
	mux.HandleFunc("/api/v1/game/tick", h.handleTick)
	mux.HandleFunc("/api/v1/game/records", h.handleRecords)
	mux.HandleFunc("/api/", h.handleUnknownAPI)
	mux.Handle("/", h.static)
	return h.logRequests(mux)
}

func isRead(r *http.Request) bool {
	return r.Method == http.MethodGet || r.Method == http.MethodHead
}

func (h *Handler) handleUnknownAPI(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid endpoint")
}

type mapSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (h *Handler) handleMaps(w http.ResponseWriter, r *http.Request) {
	if !isRead(r) {
		writeMethodNotAllowed(w, http.MethodGet, http.MethodHead)
		return
	}
	var summaries []mapSummary
	h.strand.Do(func() {
		for _, m := range h.game.Maps() {
			summaries = append(summaries, mapSummary{ID: m.ID(), Name: m.Name()})
		}
	})
	if summaries == nil {
		summaries = []mapSummary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

type roadDTO struct {
	X0 int  `json:"x0"`
	Y0 int  `json:"y0"`
	X1 *int `json:"x1,omitempty"`
	Y1 *int `json:"y1,omitempty"`
}

type buildingDTO struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type officeDTO struct {
	ID      string `json:"id"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	OffsetX int    `json:"offsetX"`
	OffsetY int    `json:"offsetY"`
}

type mapDTO struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	Roads     []roadDTO             `json:"roads"`
	Buildings []buildingDTO         `json:"buildings"`
	Offices   []officeDTO           `json:"offices"`
	LootTypes []jsoniter.RawMessage `json:"lootTypes"`
}

func (h *Handler) handleMapByID(w http.ResponseWriter, r *http.Request) {
	if !isRead(r) {
		writeMethodNotAllowed(w, http.MethodGet, http.MethodHead)
		return
	}
	mapID := strings.TrimPrefix(r.URL.Path, "/api/v1/maps/")

	var dto *mapDTO
	h.strand.Do(func() {
		if m := h.game.FindMap(mapID); m != nil {
			dto = mapToDTO(m)
		}
	})
	if dto == nil {
		writeError(w, http.StatusNotFound, codeMapNotFound, "Map not found")
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

func mapToDTO(m *game.Map) *mapDTO {
	dto := &mapDTO{
		ID:        m.ID(),
		Name:      m.Name(),
		Roads:     []roadDTO{},
		Buildings: []buildingDTO{},
		Offices:   []officeDTO{},
		LootTypes: []jsoniter.RawMessage{},
	}
	for _, road := range m.Roads() {
		rd := roadDTO{X0: road.Start.X, Y0: road.Start.Y}
		if road.IsHorizontal() {
			x1 := road.End.X
			rd.X1 = &x1
		} else {
			y1 := road.End.Y
			rd.Y1 = &y1
		}
		dto.Roads = append(dto.Roads, rd)
	}
	for _, b := range m.Buildings() {
		dto.Buildings = append(dto.Buildings, buildingDTO{
			X: b.Bounds.Position.X, Y: b.Bounds.Position.Y,
			W: b.Bounds.Size.W, H: b.Bounds.Size.H,
		})
	}
	for _, o := range m.Offices() {
		dto.Offices = append(dto.Offices, officeDTO{
			ID: o.ID, X: o.Position.X, Y: o.Position.Y,
			OffsetX: o.Offset.DX, OffsetY: o.Offset.DY,
		})
	}
	for _, lt := range m.LootTypes() {
		dto.LootTypes = append(dto.LootTypes, lt.Raw)
	}
	return dto
}

type joinRequest struct {
	UserName string `json:"userName"`
	MapID    string `json:"mapId"`
}

type joinResponse struct {
	AuthToken string `json:"authToken"`
	PlayerID  uint64 `json:"playerId"`
}

func (h *Handler) handleJoin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidArgument, "Join game request parse error")
		return
	}
	var req joinRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidArgument, "Join game request parse error")
		return
	}
	if req.UserName == "" {
		writeError(w, http.StatusBadRequest, codeInvalidArgument, "Invalid name")
		return
	}
	if req.MapID == "" {
		writeError(w, http.StatusBadRequest, codeInvalidArgument, "Invalid map")
		return
	}

	var resp *joinResponse
	h.strand.Do(func() {
		if h.game.FindMap(req.MapID) == nil {
			return
		}
		s := h.game.GetSession(req.MapID)
		token, p := h.game.AddPlayer(req.UserName, s)
		resp = &joinResponse{AuthToken: string(token), PlayerID: p.ID()}
	})
	if resp == nil {
		writeError(w, http.StatusNotFound, codeMapNotFound, "Map not found")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// withAuth validates the bearer token and runs action on the strand with the
// resolved player. The token must be 32 lowercase hex digits.
func (h *Handler) withAuth(w http.ResponseWriter, r *http.Request, action func(p *game.Player)) {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) || !tokenPattern.MatchString(auth[len(prefix):]) {
		writeError(w, http.StatusUnauthorized, codeInvalidToken, "Authorization header is missing")
		return
	}
	token := game.Token(auth[len(prefix):])

	found := false
	h.strand.Do(func() {
		p := h.game.FindPlayerByToken(token)
		if p == nil {
			return
		}
		found = true
		action(p)
	})
	if !found {
		writeError(w, http.StatusUnauthorized, codeUnknownToken, "Player token has not been found")
	}
}

type playerName struct {
	Name string `json:"name"`
}

func (h *Handler) handlePlayers(w http.ResponseWriter, r *http.Request) {
	if !isRead(r) {
		writeMethodNotAllowed(w, http.MethodGet, http.MethodHead)
		return
	}
	h.withAuth(w, r, func(p *game.Player) {
		players := make(map[string]playerName)
		mapID := p.Session().Map().ID()
		for _, d := range p.Session().Dogs() {
			other := h.game.FindByDogAndMap(d.ID, mapID)
			players[strconv.FormatUint(other.ID(), 10)] = playerName{Name: other.Name()}
		}
		writeJSON(w, http.StatusOK, players)
	})
}

type bagItemDTO struct {
	ID   int `json:"id"`
	Type int `json:"type"`
}

type playerStateDTO struct {
	Pos   [2]float64   `json:"pos"`
	Speed [2]float64   `json:"speed"`
	Dir   string       `json:"dir"`
	Bag   []bagItemDTO `json:"bag"`
	Score int          `json:"score"`
}

type lootStateDTO struct {
	Type int        `json:"type"`
	Pos  [2]float64 `json:"pos"`
}

type stateResponse struct {
	Players     map[string]playerStateDTO `json:"players"`
	LostObjects map[string]lootStateDTO   `json:"lostObjects"`
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	if !isRead(r) {
		writeMethodNotAllowed(w, http.MethodGet, http.MethodHead)
		return
	}
	h.withAuth(w, r, func(p *game.Player) {
		resp := stateResponse{
			Players:     make(map[string]playerStateDTO),
			LostObjects: make(map[string]lootStateDTO),
		}
		s := p.Session()
		mapID := s.Map().ID()
		for _, d := range s.Dogs() {
			other := h.game.FindByDogAndMap(d.ID, mapID)
			bag := make([]bagItemDTO, 0, len(other.Bag()))
			for _, l := range other.Bag() {
				bag = append(bag, bagItemDTO{ID: l.ID, Type: l.Type})
			}
			resp.Players[strconv.FormatUint(d.ID, 10)] = playerStateDTO{
				Pos:   [2]float64{d.Position.X(), d.Position.Y()},
				Speed: [2]float64{d.Velocity.X(), d.Velocity.Y()},
				Dir:   d.Direction.Letter(),
				Bag:   bag,
				Score: other.Score(),
			}
		}
		for _, l := range s.Loots() {
			resp.LostObjects[strconv.Itoa(l.ID)] = lootStateDTO{
				Type: l.Type,
				Pos:  [2]float64{l.Position.X(), l.Position.Y()},
			}
		}
		writeJSON(w, http.StatusOK, resp)
	})
}

type actionRequest struct {
	Move string `json:"move"`
}

func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		writeError(w, http.StatusBadRequest, codeInvalidArgument, "Invalid content type")
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidArgument, "Failed to parse action")
		return
	}
	var req actionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidArgument, "Failed to parse action")
		return
	}
	var dir geom.Direction
	switch req.Move {
	case "":
	case "U":
		dir = geom.North
	case "D":
		dir = geom.South
	case "L":
		dir = geom.West
	case "R":
		dir = geom.East
	default:
		writeError(w, http.StatusBadRequest, codeInvalidArgument, "Failed to parse action")
		return
	}

	h.withAuth(w, r, func(p *game.Player) {
		if req.Move == "" {
			p.Stop()
		} else {
			p.SetDirection(dir)
		}
		writeJSON(w, http.StatusOK, struct{}{})
	})
}

type tickRequest struct {
	TimeDelta *int64 `json:"timeDelta"`
}

// handleTick advances the game manually. Available only when the server runs
// without an internal ticker.
func (h *Handler) handleTick(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	if h.game.IsTickerInternal() {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid endpoint")
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidArgument, "Failed to parse tick request JSON")
		return
	}
	var req tickRequest
	if err := json.Unmarshal(body, &req); err != nil || req.TimeDelta == nil || *req.TimeDelta < 0 {
		writeError(w, http.StatusBadRequest, codeInvalidArgument, "Failed to parse tick request JSON")
		return
	}

	delta := *req.TimeDelta
	h.strand.Do(func() {
		h.game.GameTick(delta)
	})
	writeJSON(w, http.StatusOK, struct{}{})
}

// handleRecords serves the scoreboard. It runs entirely off the strand: the
// data lives in Postgres, not in game state.
func (h *Handler) handleRecords(w http.ResponseWriter, r *http.Request) {
	if !isRead(r) {
		writeMethodNotAllowed(w, http.MethodGet, http.MethodHead)
		return
	}
	start, err := queryInt(r, "start", 0)
	if err != nil || start < 0 {
		writeError(w, http.StatusBadRequest, codeInvalidArgument, "Invalid start parameter")
		return
	}
	maxItems, err := queryInt(r, "maxItems", defaultRecordLimit)
	if err != nil || maxItems < 0 || maxItems > maxRecordLimit {
		writeError(w, http.StatusBadRequest, codeInvalidArgument, "Invalid maxItems parameter")
		return
	}

	records, err := h.records.GetRecords(r.Context(), maxItems, start)
	if err != nil {
		h.log.Error("query records", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeBadRequest, "Failed to query records")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
