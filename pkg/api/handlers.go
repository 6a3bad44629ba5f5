package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ava-labs/window-averager/pkg/averager"
	"github.com/ava-labs/window-averager/pkg/window"
)

const (
	MsgInvalidNumberID = "invalid number id"
	msgFetchFailed     = "failed to fetch numbers"

	// statusClientClosedRequest is the nginx convention for a caller that
	// went away before the response was ready.
	statusClientClosedRequest = 499
)

// NumbersResponse is the body of GET /numbers/:numberid.
type NumbersResponse struct {
	WindowPrevState []int64 `json:"windowPrevState"`
	WindowCurrState []int64 `json:"windowCurrState"`
	Numbers         []int64 `json:"numbers"`
	Avg             string  `json:"avg"`
	Error           string  `json:"error,omitempty"`
}

type windowResponse struct {
	Window   []int64 `json:"window"`
	Avg      string  `json:"avg"`
	Capacity int     `json:"capacity"`
}

// ErrorResponse is the body of a rejected request.
type ErrorResponse struct {
	Error string `json:"error"`
}

type handlers struct {
	svc Submitter
	log *zap.SugaredLogger
}

func (h *handlers) getNumbers(c *gin.Context) {
	token := c.Param("numberid")

	res, err := h.svc.Submit(c.Request.Context(), token)
	switch {
	case averager.IsInvalidCategory(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: MsgInvalidNumberID})
		return
	case err != nil:
		h.log.Debugw("request abandoned", "numberid", token, "error", err)
		c.AbortWithStatus(statusClientClosedRequest)
		return
	}

	c.JSON(http.StatusOK, NewNumbersResponse(res))
}

// NewNumbersResponse renders an ingest result. A failed fetch is reported
// in Error alongside the unchanged window.
func NewNumbersResponse(res window.IngestResult) NumbersResponse {
	body := NumbersResponse{
		WindowPrevState: res.Previous,
		WindowCurrState: res.Updated,
		Numbers:         res.Fetched,
		Avg:             formatAverage(res.Average),
	}
	if res.FetchFailed() {
		body.Error = msgFetchFailed
	}
	return body
}

func (h *handlers) getWindow(c *gin.Context) {
	values, avg, capacity := h.svc.Window()
	c.JSON(http.StatusOK, windowResponse{
		Window:   values,
		Avg:      formatAverage(avg),
		Capacity: capacity,
	})
}

func (h *handlers) resetWindow(c *gin.Context) {
	h.svc.Reset()
	c.Status(http.StatusNoContent)
}

// formatAverage renders the mean with two decimals.
func formatAverage(avg float64) string {
	return strconv.FormatFloat(avg, 'f', 2, 64)
}
