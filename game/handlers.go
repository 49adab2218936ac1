package game

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const maxRoomNameLength = 32

const joinAnswerTimeout = 5 * time.Second

type GameHandler struct {
	lobby      *lobby
	userGetter UserGetter
	reporter   MatchReporter
	scheduler  Scheduler
	logger     zerolog.Logger
	upgrader   websocket.Upgrader
}

func NewGameHandler(l *lobby, userGetter UserGetter, reporter MatchReporter, scheduler Scheduler, logger zerolog.Logger) *GameHandler {
	return &GameHandler{
		lobby:      l,
		userGetter: userGetter,
		reporter:   reporter,
		scheduler:  scheduler,
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (h *GameHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/rooms", h.ListPublicRoomsHandler)
	rg.GET("/rooms/create", h.CreateRoomHandler)
	rg.GET("/rooms/:roomid/join", h.JoinRoomHandler)
}

func (h *GameHandler) CreateRoomHandler(ctx *gin.Context) {
	id := ctx.GetString("id")
	if id == "" {
		h.logger.Error().
			Str("ip", ctx.ClientIP()).
			Str("user_agent", ctx.Request.UserAgent()).
			Msg("user id missing from context, middleware misconfigured")
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
		return
	}

	variant := Variant(ctx.DefaultQuery("variant", string(VariantTakeSix)))
	rules, err := RulesForVariant(variant)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": ErrUnknownVariant.Error()})
		return
	}

	size, err := strconv.Atoi(ctx.DefaultQuery("size", strconv.Itoa(rules.MinPlayers)))
	if err != nil || size < rules.MinPlayers || size > rules.MaxPlayers {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": ErrInvalidRules.Error()})
		return
	}

	name := ctx.Query("name")
	if len(name) > maxRoomNameLength {
		name = name[:maxRoomNameLength]
	}
	private := ctx.Query("private") == "true"

	user, err := h.userGetter.GetUserById(ctx.Request.Context(), id)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
		return
	}

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("ws upgrade failed")
		return
	}

	socket := NewWebsocketConnection(conn)
	player := NewPlayer(id, user.Username, socket)
	room := NewRoom(name, player, rules, size, private, h.scheduler, h.reporter, h.logger)

	if _, err := h.lobby.AddAndRunRoom(ctx.Request.Context(), room); err != nil {
		socket.Close(err.Error())
		return
	}

	go player.ReadPump()
	go player.WritePump()
}

func (h *GameHandler) JoinRoomHandler(ctx *gin.Context) {
	id := ctx.GetString("id")
	if id == "" {
		h.logger.Error().
			Str("ip", ctx.ClientIP()).
			Str("user_agent", ctx.Request.UserAgent()).
			Msg("user id missing from context, middleware misconfigured")
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
		return
	}
	roomId := ctx.Param("roomid")

	user, err := h.userGetter.GetUserById(ctx.Request.Context(), id)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
		return
	}

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("ws upgrade failed")
		return
	}

	socket := NewWebsocketConnection(conn)
	player := NewPlayer(id, user.Username, socket)
	jreq := NewRoomJoinRequest(roomId, player)
	h.lobby.ForwardPlayerJoinRequestToRoom(ctx.Request.Context(), jreq)

	select {
	case err := <-jreq.errChan:
		if err != nil {
			socket.Close(err.Error())
			return
		}
	case <-time.After(joinAnswerTimeout):
		socket.Close("timeout")
		return
	}

	go player.ReadPump()
	go player.WritePump()
}

func (h *GameHandler) ListPublicRoomsHandler(ctx *gin.Context) {
	descriptions := h.lobby.GetPublicGames(ctx.Request.Context())

	type roomListItem struct {
		Id      string `json:"id"`
		Name    string `json:"name"`
		Variant string `json:"variant"`
		Players int    `json:"players"`
		Size    int    `json:"size"`
		Started bool   `json:"started"`
	}

	rooms := make([]roomListItem, 0, len(descriptions))
	for _, d := range descriptions {
		rooms = append(rooms, roomListItem{
			Id:      d.id,
			Name:    d.name,
			Variant: string(d.variant),
			Players: d.playersCount,
			Size:    d.size,
			Started: d.started,
		})
	}
	ctx.JSON(http.StatusOK, gin.H{"rooms": rooms})
}
