package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/annel0/prefab-loader/internal/library"
	"github.com/annel0/prefab-loader/internal/raw"
	"github.com/annel0/prefab-loader/internal/storage_interface"
)

// PrefabSummary - краткое описание префаба для GET /api/games/:id/prefabs
type PrefabSummary struct {
	Index       int     `json:"index"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Collider    uint8   `json:"collider"`
	Background  uint8   `json:"background_color"`
	Editable    bool    `json:"editable"`
	GroupID     *uint16 `json:"group_id,omitempty"`
	PosInGroup  []uint8 `json:"pos_in_group,omitempty"`
	BlockCount  int     `json:"block_count"`
	Size        []int   `json:"size,omitempty"`
	Settings    int     `json:"settings"`
	Connections int     `json:"connections"`
}

// GroupSummary - описание группы префабов
type GroupSummary struct {
	ID      uint16 `json:"id"`
	Prefabs int    `json:"prefabs"`
	Size    []int  `json:"size"`
}

// handleListGames возвращает метаданные всех игр
func (rs *RestServer) handleListGames(c *gin.Context) {
	list, err := rs.lib.List(c.Request.Context())
	if err != nil {
		rs.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: fmt.Sprintf("Игр в библиотеке: %d", len(list)),
		Data:    list,
	})
}

// handleGetGame возвращает метаданные одной игры
func (rs *RestServer) handleGetGame(c *gin.Context) {
	meta, err := rs.lib.Info(c.Request.Context(), c.Param("id"))
	if err != nil {
		rs.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Игра найдена",
		Data:    meta,
	})
}

// handleGetPrefabs разбирает игру и возвращает сводку по префабам и группам
func (rs *RestServer) handleGetPrefabs(c *gin.Context) {
	g, err := rs.lib.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		rs.respondError(c, err)
		return
	}

	prefabs := make([]PrefabSummary, 0, len(g.Prefabs))
	for i, p := range g.Prefabs {
		s := PrefabSummary{
			Index:       i,
			Name:        p.Name,
			Type:        p.Type.String(),
			Collider:    uint8(p.Collider),
			Background:  uint8(p.BackgroundColor),
			Editable:    p.Editable,
			Settings:    len(p.Settings),
			Connections: len(p.Connections),
		}
		if p.IsInGroup() {
			id := uint16(p.GroupID)
			s.GroupID = &id
			s.PosInGroup = []uint8{p.PosInGroup.X, p.PosInGroup.Y, p.PosInGroup.Z}
		}
		if p.Blocks != nil && !p.Blocks.IsEmpty() {
			size := p.Blocks.Size()
			s.BlockCount = p.Blocks.Count()
			s.Size = []int{int(size.X), int(size.Y), int(size.Z)}
		}
		prefabs = append(prefabs, s)
	}

	groups, err := g.Groups()
	if err != nil {
		rs.respondError(c, err)
		return
	}
	groupList := make([]GroupSummary, 0, len(groups))
	for _, grp := range groups {
		size := grp.Size()
		groupList = append(groupList, GroupSummary{
			ID:      uint16(grp.ID()),
			Prefabs: grp.Len(),
			Size:    []int{int(size.X), int(size.Y), int(size.Z)},
		})
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: fmt.Sprintf("Префабов: %d", len(prefabs)),
		Data: gin.H{
			"name":    g.Name(),
			"author":  g.Author,
			"prefabs": prefabs,
			"groups":  groupList,
		},
	})
}

// handleDownload отдает игру в текущей версии формата
func (rs *RestServer) handleDownload(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	// Info до записи тела, иначе 404 уже не отправить
	if _, err := rs.lib.Info(ctx, id); err != nil {
		rs.respondError(c, err)
		return
	}

	c.Header("Content-Type", "application/octet-stream")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".fcg"))
	c.Status(http.StatusOK)
	if err := rs.lib.Export(ctx, id, c.Writer); err != nil {
		rs.log.Error("Ошибка выгрузки игры %s: %v", id, err)
		_ = c.Error(err)
	}
}

// handleUpload импортирует .fcg файл из тела запроса
func (rs *RestServer) handleUpload(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, rs.maxUpload)
	defer body.Close()

	meta, err := rs.lib.Import(c.Request.Context(), body)
	if err != nil {
		rs.respondError(c, err)
		return
	}

	rs.log.Info("Игра %s загружена пользователем %s", meta.ID, c.GetString(ctxUsername))
	c.Header("Location", "/api/games/"+meta.ID)
	c.JSON(http.StatusCreated, GenericResponse{
		Success: true,
		Message: "Игра импортирована",
		Data:    meta,
	})
}

// handleDelete удаляет игру
func (rs *RestServer) handleDelete(c *gin.Context) {
	id := c.Param("id")
	if err := rs.lib.Delete(c.Request.Context(), id); err != nil {
		rs.respondError(c, err)
		return
	}

	rs.log.Info("Игра %s удалена пользователем %s", id, c.GetString(ctxUsername))
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Игра удалена",
	})
}

// respondError переводит ошибку библиотеки в HTTP статус
func (rs *RestServer) respondError(c *gin.Context, err error) {
	var (
		status   = http.StatusInternalServerError
		message  = "Внутренняя ошибка сервера"
		tooLarge *http.MaxBytesError
	)

	switch {
	case errors.Is(err, storage_interface.ErrGameNotFound):
		status, message = http.StatusNotFound, "Игра не найдена"
	case errors.As(err, &tooLarge):
		status, message = http.StatusRequestEntityTooLarge, "Файл больше "+strconv.FormatInt(tooLarge.Limit, 10)+" байт"
	case errors.Is(err, raw.ErrUnsupportedVersion), errors.Is(err, raw.ErrUnimplementedVersion):
		status, message = http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, library.ErrMalformedGame):
		status, message = http.StatusBadRequest, err.Error()
	default:
		rs.log.Error("Ошибка обработки %s %s: %v", c.Request.Method, c.FullPath(), err)
	}

	c.JSON(status, GenericResponse{
		Success: false,
		Message: message,
	})
}
