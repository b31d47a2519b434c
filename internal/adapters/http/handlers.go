package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vocably/vocably/internal/adapters/media"
	"github.com/vocably/vocably/internal/app/orch"
	"github.com/vocably/vocably/internal/domain"
)

type handlers struct {
	orch  *orch.Orchestrator
	media *media.Issuer
}

type participantRequest struct {
	RoomID string `json:"roomId"`
	Action string `json:"action"`
}

type participantResponse struct {
	RoomID string `json:"roomId"`
	Count  int    `json:"count"`
}

func (h *handlers) getCounts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.orch.Counts()})
}

func (h *handlers) join(c *gin.Context) {
	h.participant(c, "join")
}

func (h *handlers) leave(c *gin.Context) {
	h.participant(c, "leave")
}

// participantAction serves the combined form {roomId, action}.
func (h *handlers) participantAction(c *gin.Context) {
	h.participant(c, "")
}

func (h *handlers) participant(c *gin.Context, action string) {
	var req participantRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RoomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if action == "" {
		action = req.Action
	}

	id := domain.RoomID(req.RoomID)
	var (
		n   int
		err error
	)
	switch action {
	case "join":
		n, err = h.orch.Join(c.Request.Context(), id)
	case "leave":
		n, err = h.orch.Leave(c.Request.Context(), id)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, participantResponse{RoomID: req.RoomID, Count: n})
}

func (h *handlers) listRooms(c *gin.Context) {
	f := orch.RoomFilter{
		Query:        c.Query("q"),
		Sort:         c.DefaultQuery("sort", orch.SortNewest),
		Type:         c.Query("type"),
		Availability: c.Query("availability"),
	}
	rooms, err := h.orch.ListRooms(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

type createRoomRequest struct {
	Name            string   `json:"name" binding:"required,max=64"`
	MaxParticipants int      `json:"max_participants" binding:"required,min=1,max=50"`
	Language        string   `json:"language"`
	LanguageLevel   string   `json:"language_level" binding:"required"`
	IsPublic        *bool    `json:"is_public"`
	Password        string   `json:"password"`
	Topic           string   `json:"topic" binding:"max=200"`
	Tags            []string `json:"tags" binding:"max=10"`
}

func (h *handlers) createRoom(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, domain.ErrUnauthenticated)
		return
	}
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room: " + err.Error()})
		return
	}
	public := true
	if req.IsPublic != nil {
		public = *req.IsPublic
	}
	room, err := h.orch.CreateRoom(c.Request.Context(), domain.RoomDraft{
		Name:          req.Name,
		MaxOccupancy:  req.MaxParticipants,
		Language:      req.Language,
		LanguageLevel: domain.LanguageLevel(strings.ToLower(req.LanguageLevel)),
		IsPublic:      public,
		Password:      req.Password,
		Topic:         req.Topic,
		Tags:          req.Tags,
	}, user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

func (h *handlers) getRoom(c *gin.Context) {
	room, err := h.orch.GetRoom(c.Request.Context(), domain.RoomID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *handlers) enterRoom(c *gin.Context) {
	var req struct {
		Password string `json:"password"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
	}
	user, _ := currentUser(c)
	id := c.Param("id")
	n, err := h.orch.Enter(c.Request.Context(), domain.RoomID(id), req.Password, user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, participantResponse{RoomID: id, Count: n})
}

func (h *handlers) reportRoom(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, domain.ErrUnauthenticated)
		return
	}
	res, err := h.orch.ReportRoom(c.Request.Context(), domain.RoomID(c.Param("id")), user)
	if err != nil {
		status := statusOf(err)
		if status == http.StatusConflict {
			c.JSON(status, gin.H{"error": err.Error(), "count": res.Count})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type connectionDetails struct {
	ServerURL        string `json:"serverUrl"`
	RoomName         string `json:"roomName"`
	ParticipantName  string `json:"participantName"`
	ParticipantToken string `json:"participantToken"`
}

func (h *handlers) connectionDetails(c *gin.Context) {
	roomName := c.Query("roomName")
	participant := c.Query("participantName")
	if user, ok := currentUser(c); ok && participant == "" {
		participant = user.Username
	}
	if roomName == "" || participant == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roomName and participantName are required"})
		return
	}
	identity := participant + "__" + genClientToken()[:8]
	if user, ok := currentUser(c); ok {
		identity = string(user.ID)
	}
	token, err := h.media.Issue(identity, participant, roomName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, connectionDetails{
		ServerURL:        h.media.ServerURL,
		RoomName:         roomName,
		ParticipantName:  participant,
		ParticipantToken: token,
	})
}

func (h *handlers) getProfile(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		if user, ok := currentUser(c); ok {
			username = user.Username
		}
	}
	p, err := h.orch.GetProfile(c.Request.Context(), username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handlers) saveProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, domain.ErrUnauthenticated)
		return
	}
	var p domain.Profile
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	p.Username = user.Username
	saved, err := h.orch.SaveProfile(c.Request.Context(), &p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *handlers) me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, domain.ErrUnauthenticated)
		return
	}
	c.JSON(http.StatusOK, user)
}
