package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ellastudio/ella-data/internal/api/respond"
	"github.com/ellastudio/ella-data/internal/canon"
	"github.com/ellastudio/ella-data/internal/loader"
	"github.com/ellastudio/ella-data/internal/notice"
	"github.com/ellastudio/ella-data/internal/report"
)

const dateLayout = "2006-01-02"

// reportResponse is the /report payload: the report itself plus the load
// status of every stream that fed it, so partial data is visible.
type reportResponse struct {
	report.Report
	Streams []loader.StreamStatus `json:"streams"`
}

// GetReport returns the filtered, aggregated report over all streams.
// @Summary Get sales report
// @Description Returns summary metrics, aggregate groups, and detailed records over the merged streams. Failed streams are reported in the streams array and excluded from the data.
// @Tags report
// @Produce json
// @Param from query string false "Start date (YYYY-MM-DD, inclusive)"
// @Param to query string false "End date (YYYY-MM-DD, inclusive)"
// @Param stream query string false "Stream ID filter (repeatable or comma-separated)"
// @Param provider query string false "Service provider filter (repeatable or comma-separated)"
// @Param payment query string false "Payment mode filter (repeatable or comma-separated)"
// @Param group_by query string false "Grouping keys" Enums(stream, provider, payment)
// @Param limit query int false "Max detailed records returned"
// @Param refresh query bool false "Bypass memo and cache, reload from source"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Router /report [get]
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	preds, ok := h.parsePredicates(w, q)
	if !ok {
		return
	}

	keys, err := report.ParseKeys(q.Get("group_by"))
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_GROUP_BY", err.Error())
		return
	}

	limit, ok := h.parseLimit(w, q)
	if !ok {
		return
	}

	refresh := false
	if v := q.Get("refresh"); v != "" {
		refresh, _ = strconv.ParseBool(v)
	}

	ttl := h.cfg.CacheTTL
	cacheKey := reportCacheKey(preds, keys, limit)

	if !refresh {
		if data, etag, ok := h.cache.Get(cacheKey); ok {
			respond.WriteConditional(w, r, data, etag, ttl, true)
			return
		}
	}

	table, statuses := h.loader.LoadAll(r.Context(), refresh)

	commissions, err := h.cfg.Commissions()
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "CONFIG_ERROR", err.Error())
		return
	}

	resp := reportResponse{
		Report:  report.Build(table, preds, keys, report.Options{Limit: limit, Commissions: commissions}),
		Streams: statuses,
	}
	body, err := json.Marshal(resp)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to encode report")
		return
	}

	if refresh {
		// Everything cached was derived from the now-replaced tables.
		h.cache.Invalidate("")
	}
	etag := h.cache.Set(cacheKey, body, ttl)
	respond.WriteConditional(w, r, body, etag, ttl, false)
}

// GetStatus returns the load state of every stream plus accumulated notices.
// @Summary Pipeline status
// @Description Returns per-stream load status, schema-gap and load-error notices, and cache statistics.
// @Tags status
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /status [get]
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	_, statuses := h.loader.LoadAll(r.Context(), false)

	state := "ok"
	for _, s := range statuses {
		if s.Failed() {
			state = "degraded"
			break
		}
	}

	notices := h.loader.Notices().List()
	if notices == nil {
		notices = []notice.Notice{}
	}

	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"status":    state,
		"streams":   statuses,
		"notices":   notices,
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// streamTile is one entry of the /streams listing: load status plus the
// stream's own headline metrics.
type streamTile struct {
	loader.StreamStatus
	Summary report.Summary `json:"summary"`
}

// GetStreams returns a per-stream overview.
// @Summary List streams
// @Description Returns every configured stream with its load status and headline metrics.
// @Tags streams
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /streams [get]
func (h *Handler) GetStreams(w http.ResponseWriter, r *http.Request) {
	ttl := h.cfg.CacheTTL
	cacheKey := "streams:list"

	if data, etag, ok := h.cache.Get(cacheKey); ok {
		respond.WriteConditional(w, r, data, etag, ttl, true)
		return
	}

	tiles := make([]streamTile, 0, len(h.loader.Streams()))
	for _, s := range h.loader.Streams() {
		table, status, _ := h.loader.LoadStream(r.Context(), s.ID, false)
		tiles = append(tiles, streamTile{
			StreamStatus: status,
			Summary:      report.Summarize(table),
		})
	}

	body, err := json.Marshal(map[string]any{"streams": tiles})
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to encode streams")
		return
	}
	etag := h.cache.Set(cacheKey, body, ttl)
	respond.WriteConditional(w, r, body, etag, ttl, false)
}

// GetStream returns one stream's records and metrics.
// @Summary Get stream detail
// @Description Returns one stream's load status, headline metrics, and detailed records sorted newest first.
// @Tags streams
// @Produce json
// @Param streamID path string true "Stream ID" Enums(recep, tech, waxhub)
// @Param limit query int false "Max detailed records returned"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} respond.ErrorResponse
// @Failure 502 {object} respond.ErrorResponse
// @Router /streams/{streamID} [get]
func (h *Handler) GetStream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "streamID")

	limit, ok := h.parseLimit(w, r.URL.Query())
	if !ok {
		return
	}

	ttl := h.cfg.CacheTTL
	cacheKey := fmt.Sprintf("stream:%s:%d", id, limit)

	if data, etag, ok := h.cache.Get(cacheKey); ok {
		respond.WriteConditional(w, r, data, etag, ttl, true)
		return
	}

	table, status, err := h.loader.LoadStream(r.Context(), id, false)
	if err != nil {
		h.writeLoadError(w, id, err)
		return
	}

	records := report.SortRecords(table)
	total := len(records)
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	body, err := json.Marshal(map[string]any{
		"status":        status,
		"summary":       report.Summarize(table),
		"records":       records,
		"total_records": total,
	})
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to encode stream")
		return
	}
	etag := h.cache.Set(cacheKey, body, ttl)
	respond.WriteConditional(w, r, body, etag, ttl, false)
}

// GetStreamHeaders returns the column plan a stream's header row resolved to.
// @Summary Get stream column plan
// @Description Returns the raw and deduplicated header row, the canonical form of each label, how each target field is bound (alias or position), and the fields with no source.
// @Tags streams
// @Produce json
// @Param streamID path string true "Stream ID" Enums(recep, tech, waxhub)
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} respond.ErrorResponse
// @Failure 502 {object} respond.ErrorResponse
// @Router /streams/{streamID}/headers [get]
func (h *Handler) GetStreamHeaders(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "streamID")

	ttl := h.cfg.CacheTTL
	cacheKey := "headers:" + id

	if data, etag, ok := h.cache.Get(cacheKey); ok {
		respond.WriteConditional(w, r, data, etag, ttl, true)
		return
	}

	plan, status, err := h.loader.Plan(r.Context(), id, false)
	if err != nil {
		h.writeLoadError(w, id, err)
		return
	}

	body, err := json.Marshal(map[string]any{
		"status": status,
		"plan":   plan,
	})
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to encode plan")
		return
	}
	etag := h.cache.Set(cacheKey, body, ttl)
	respond.WriteConditional(w, r, body, etag, ttl, false)
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// parsePredicates parses filter params, writing the 400 itself on bad input.
func (h *Handler) parsePredicates(w http.ResponseWriter, q url.Values) (report.Predicates, bool) {
	var preds report.Predicates

	if s := q.Get("from"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			respond.WriteError(w, http.StatusBadRequest, "INVALID_DATE", "from must be YYYY-MM-DD")
			return preds, false
		}
		preds.From = &t
	}
	if s := q.Get("to"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			respond.WriteError(w, http.StatusBadRequest, "INVALID_DATE", "to must be YYYY-MM-DD")
			return preds, false
		}
		preds.To = &t
	}

	for _, id := range multiParam(q, "stream") {
		schema, ok := canon.FindStream(h.loader.Streams(), id)
		if !ok {
			respond.WriteErrorDetail(w, http.StatusBadRequest, "UNKNOWN_STREAM",
				fmt.Sprintf("unknown stream %q", id), "valid streams: "+strings.Join(streamIDs(h.loader.Streams()), ", "))
			return preds, false
		}
		preds.Streams = append(preds.Streams, schema.Label)
	}
	preds.Providers = multiParam(q, "provider")
	preds.Payments = multiParam(q, "payment")

	return preds, true
}

// parseLimit returns the record cap: the configured maximum by default,
// clamped to it when the client asks for more.
func (h *Handler) parseLimit(w http.ResponseWriter, q url.Values) (int, bool) {
	limit := h.cfg.ReportMaxRecords
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			respond.WriteError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a non-negative integer")
			return 0, false
		}
		if n != 0 {
			limit = n
		}
	}
	if h.cfg.ReportMaxRecords > 0 && limit > h.cfg.ReportMaxRecords {
		limit = h.cfg.ReportMaxRecords
	}
	return limit, true
}

func (h *Handler) writeLoadError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, loader.ErrUnknownStream) {
		respond.WriteError(w, http.StatusNotFound, "UNKNOWN_STREAM", fmt.Sprintf("unknown stream %q", id))
		return
	}
	respond.WriteErrorDetail(w, http.StatusBadGateway, "LOAD_FAILED",
		fmt.Sprintf("stream %q could not be loaded", id), err.Error())
}

func streamIDs(streams []canon.StreamSchema) []string {
	ids := make([]string, len(streams))
	for i, s := range streams {
		ids[i] = s.ID
	}
	return ids
}

// multiParam collects a repeatable query param, splitting each value on
// commas, so ?stream=a,b and ?stream=a&stream=b are equivalent.
func multiParam(q url.Values, key string) []string {
	var out []string
	for _, raw := range q[key] {
		for _, part := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}

func reportCacheKey(p report.Predicates, keys []report.Key, limit int) string {
	var b strings.Builder
	b.WriteString("report:")
	if p.From != nil {
		b.WriteString(p.From.Format(dateLayout))
	}
	b.WriteByte(':')
	if p.To != nil {
		b.WriteString(p.To.Format(dateLayout))
	}
	fmt.Fprintf(&b, ":%s:%s:%s", strings.Join(p.Streams, "+"),
		strings.Join(p.Providers, "+"), strings.Join(p.Payments, "+"))
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k)
	}
	fmt.Fprintf(&b, ":%s:%d", strings.Join(parts, "+"), limit)
	return b.String()
}
