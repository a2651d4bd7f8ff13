package protein

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/protkit/protkit/internal/platform/seqio"
	"github.com/protkit/protkit/pkg/pagination"
	"github.com/protkit/protkit/pkg/proteome"
)

// MIMEFASTA is the content type of FASTA responses.
const MIMEFASTA = "text/x-fasta; charset=UTF-8"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/proteins", h.ListProteins)
	api.GET("/proteins/:identifier", h.GetProtein)
	api.GET("/proteins/:identifier/fasta", h.GetProteinFASTA)
	api.POST("/proteins/fasta", h.ImportFASTA)
	api.DELETE("/proteins/:identifier", h.DeleteProtein)
}

// ImportResult is the body returned by ImportFASTA.
type ImportResult struct {
	Imported    int      `json:"imported"`
	Identifiers []string `json:"identifiers"`
}

func (h *Handler) ListProteins(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListProteins(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*StoredProtein{}
	}
	return c.JSON(http.StatusOK,
		pagination.NewResponse(items, total, pg.Limit, pg.Offset).WithLinks(c.Request().URL.Path))
}

func (h *Handler) GetProtein(c echo.Context) error {
	p, err := h.lookup(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// GetProteinFASTA renders one protein as a FASTA record. The optional
// "width" query parameter sets the residues per line.
func (h *Handler) GetProteinFASTA(c echo.Context) error {
	p, err := h.lookup(c)
	if err != nil {
		return err
	}
	width, _ := strconv.Atoi(c.QueryParam("width"))

	c.Response().Header().Set(echo.HeaderContentType, MIMEFASTA)
	c.Response().WriteHeader(http.StatusOK)
	return seqio.NewFASTAWriter(c.Response(), width).Write(p.Protein())
}

// ImportFASTA stores every record of a FASTA request body. Records sharing
// an identifier collapse to the last one. The "source" query parameter
// labels the stored rows.
func (h *Handler) ImportFASTA(c echo.Context) error {
	it := seqio.NewFASTAScanner(c.Request().Body, "request body")
	p := proteome.NewProteome()
	for it.Next() {
		p.Add(it.Record().Protein())
	}
	if err := it.Err(); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if p.Len() == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no FASTA records in request body")
	}

	source := c.QueryParam("source")
	if source == "" {
		source = "upload"
	}
	n, err := h.svc.ImportProteome(c.Request().Context(), p, source)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, ImportResult{Imported: n, Identifiers: p.IDs()})
}

func (h *Handler) DeleteProtein(c echo.Context) error {
	id, err := identifierParam(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteProtein(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) lookup(c echo.Context) (*StoredProtein, error) {
	id, err := identifierParam(c)
	if err != nil {
		return nil, err
	}
	p, err := h.svc.GetProtein(c.Request().Context(), id)
	if err != nil {
		return nil, httpError(err)
	}
	return p, nil
}

// identifierParam unescapes the path parameter so identifiers such as
// "sp|Q99J83|ATG5_MOUSE" survive percent-encoding.
func identifierParam(c echo.Context) (string, error) {
	id, err := url.PathUnescape(c.Param("identifier"))
	if err != nil || id == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid identifier")
	}
	return id, nil
}

func httpError(err error) error {
	switch {
	case errors.Is(err, proteome.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, proteome.ErrParse), errors.Is(err, ErrInvalidProtein):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
