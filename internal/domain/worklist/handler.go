package worklist

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clintriage/triage/pkg/pagination"
)

// Handler exposes the live board over HTTP.
type Handler struct {
	board *Board
}

func NewHandler(board *Board) *Handler {
	return &Handler{board: board}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/worklist", h.List)
	api.GET("/worklist/export", h.Export)
}

// List returns the board in display order, paginated.
func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	entries := h.board.Entries()
	total := len(entries)

	start := pg.Offset
	if start > total {
		start = total
	}
	end := start + pg.Limit
	if end > total {
		end = total
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(entries[start:end], total, pg.Limit, pg.Offset))
}

// Export streams the whole board as an XLSX download.
func (h *Handler) Export(c echo.Context) error {
	entries := h.board.Entries()
	data, err := Export(entries)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+ExportFilename(len(entries)))
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
