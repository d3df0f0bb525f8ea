package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/anphuc-nienso/internal/dashboard"
	"github.com/joseph-ayodele/anphuc-nienso/internal/export"
	"github.com/joseph-ayodele/anphuc-nienso/internal/families"
	"github.com/joseph-ayodele/anphuc-nienso/internal/imports"
	"github.com/joseph-ayodele/anphuc-nienso/internal/lunar"
	"github.com/joseph-ayodele/anphuc-nienso/internal/prayers"
	"github.com/joseph-ayodele/anphuc-nienso/internal/repository"
	"github.com/joseph-ayodele/anphuc-nienso/internal/yearconfig"
)

type stubOCR struct{ text string }

func (s stubOCR) ExtractText(context.Context, []byte) (string, error) { return s.text, nil }

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "server.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	familyRepo := repository.NewFamilyRepository(db, nil)
	memberRepo := repository.NewMemberRepository(db, nil)
	recordRepo := repository.NewPrayerRecordRepository(db, nil)
	years := yearconfig.NewService(repository.NewConfigRepository(db, nil), nil,
		yearconfig.WithClock(func() time.Time { return time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC) }))

	prayerSvc := prayers.NewService(recordRepo, familyRepo, memberRepo, years, nil)
	svc := Services{
		Families:  families.NewService(familyRepo, memberRepo, recordRepo, years, nil),
		Imports:   imports.NewService(familyRepo, years, stubOCR{text: "Nguyễn Văn An 1960\nTrần Thị Bình 1965"}, nil),
		Prayers:   prayerSvc,
		Dashboard: dashboard.NewService(familyRepo, memberRepo, recordRepo, years, nil),
		Export:    export.NewService(prayerSvc, nil),
		Years:     years,
		DB:        db,
	}
	s, err := NewServer(cfg, svc, nil)
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path string, body any, lang string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, ts.URL+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if lang != "" {
		req.Header.Set("Accept-Language", lang)
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func decodeBody[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(b, &v), string(b))
	return v
}

func errorMessage(t *testing.T, b []byte) string {
	return decodeBody[map[string]string](t, b)["error"]
}

func createFamily(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp, body := do(t, ts, http.MethodPost, "/api/families", map[string]any{
		"headOfHouseholdName": "Nguyễn Văn An",
		"address":             "Thôn Đông",
		"members": []map[string]any{
			{"name": "Nguyễn Văn An", "birthYear": 1960},
			{"name": "Trần Thị Bình", "birthYear": 1965, "gender": false},
			{"name": "Nguyễn Văn Tổ", "birthYear": 1930, "isAlive": false},
		},
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	return decodeBody[map[string]any](t, body)["id"].(string)
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, Config{})
	resp, body := do(t, ts, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
	assert.NotEmpty(t, resp.Header.Get("Content-Language"))
}

func TestLunarYearConfig(t *testing.T) {
	ts := newTestServer(t, Config{})

	_, body := do(t, ts, http.MethodGet, "/api/config/lunar-year", nil, "")
	assert.JSONEq(t, `{"year":2026}`, string(body))

	resp, body := do(t, ts, http.MethodPut, "/api/config/lunar-year", map[string]int{"year": 2027}, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"year":2027}`, string(body))

	_, body = do(t, ts, http.MethodGet, "/api/config/lunar-year", nil, "")
	assert.JSONEq(t, `{"year":2027}`, string(body))

	resp, body = do(t, ts, http.MethodPut, "/api/config/lunar-year", map[string]int{"year": 1800}, "vi")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, errorMessage(t, body), "Dữ liệu không hợp lệ")

	resp, body = do(t, ts, http.MethodPut, "/api/config/lunar-year", map[string]int{"year": 1800}, "en-US,en;q=0.9")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, errorMessage(t, body), "Invalid input")
	assert.Equal(t, "en", resp.Header.Get("Content-Language"))
}

func TestFamilies_CRUDAndLocalizedErrors(t *testing.T) {
	ts := newTestServer(t, Config{})
	id := createFamily(t, ts)

	resp, body := do(t, ts, http.MethodGet, "/api/families/"+id, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail := decodeBody[map[string]any](t, body)
	assert.EqualValues(t, 2026, detail["year"])
	members := detail["members"].([]any)
	require.Len(t, members, 3)

	resp, body = do(t, ts, http.MethodGet, "/api/families?search=an", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decodeBody[map[string]any](t, body)
	assert.EqualValues(t, 1, page["totalCount"])
	item := page["items"].([]any)[0].(map[string]any)
	assert.EqualValues(t, 2, item["aliveCount"])
	assert.EqualValues(t, 1, item["deceasedCount"])

	resp, body = do(t, ts, http.MethodPost, "/api/families/"+id+"/members",
		map[string]any{"name": "Nguyễn Văn Cường", "birthYear": 1990}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	m := decodeBody[map[string]any](t, body)
	assert.Equal(t, true, m["gender"])
	assert.Equal(t, true, m["isAlive"])
	assert.EqualValues(t, 37, m["tuoiMu"])

	resp, body = do(t, ts, http.MethodPut, "/api/families/"+id+"/members/"+m["id"].(string),
		map[string]any{"name": "Nguyễn Văn Cường", "birthYear": 1991, "gender": true, "isAlive": true}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.EqualValues(t, 1991, decodeBody[map[string]any](t, body)["birthYear"])

	resp, _ = do(t, ts, http.MethodDelete, "/api/families/"+id+"/members/"+m["id"].(string), nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	missing := "/api/families/00000000-0000-0000-0000-000000000001"
	resp, body = do(t, ts, http.MethodGet, missing, nil, "vi")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Không tìm thấy gia đình", errorMessage(t, body))

	resp, body = do(t, ts, http.MethodGet, missing, nil, "en")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Family not found", errorMessage(t, body))

	resp, body = do(t, ts, http.MethodGet, "/api/families/not-a-uuid", nil, "en")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid id", errorMessage(t, body))

	resp, _ = do(t, ts, http.MethodPost, "/api/families", map[string]any{"address": "x"}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, ts, http.MethodDelete, "/api/families/"+id, nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = do(t, ts, http.MethodGet, "/api/families/"+id, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestImport_TextAndSave(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp, body := do(t, ts, http.MethodPost, "/api/import/process-text",
		map[string]string{"text": "Lê Văn Hùng 1970\nPhạm Thị Lan 1972"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	preview := decodeBody[map[string]any](t, body)
	assert.Contains(t, preview["extractedText"], "Phạm Thị Lan")
	assert.Len(t, preview["members"], 2)

	resp, body = do(t, ts, http.MethodPost, "/api/import/process-text", map[string]string{"text": " "}, "en")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Text is required", errorMessage(t, body))

	resp, body = do(t, ts, http.MethodPost, "/api/import/save", map[string]any{
		"members": []map[string]any{{"name": "Lê Văn Hùng", "birthYear": 1970}, {"name": nil}},
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	saved := decodeBody[map[string]any](t, body)
	assert.EqualValues(t, 2, saved["memberCount"])

	resp, _ = do(t, ts, http.MethodGet, "/api/families/"+saved["familyId"].(string), nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = do(t, ts, http.MethodPost, "/api/import/save", map[string]any{"members": []any{}}, "en")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "At least one member is required", errorMessage(t, body))
}

func uploadImage(t *testing.T, ts *httptest.Server, field string, content []byte) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, "so.png")
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/import/ocr", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept-Language", "en")
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func TestImport_OCRUploadAndRateLimit(t *testing.T) {
	ts := newTestServer(t, Config{OCRRatePerMin: 1, OCRBurst: 2, MaxUploadBytes: 64})

	resp, body := uploadImage(t, ts, "file", []byte("fake png bytes"))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	preview := decodeBody[map[string]any](t, body)
	assert.Contains(t, preview["extractedText"], "Nguyễn Văn An")
	assert.Len(t, preview["members"], 2)

	resp, body = uploadImage(t, ts, "file", bytes.Repeat([]byte("x"), 200))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.True(t, strings.HasPrefix(errorMessage(t, body), "File too large"), string(body))

	resp, body = uploadImage(t, ts, "file", []byte("again"))
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "Too many requests, please try again later", errorMessage(t, body))
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))
}

func TestImport_OCRMissingFile(t *testing.T) {
	ts := newTestServer(t, Config{})
	resp, body := uploadImage(t, ts, "other", []byte("png"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "An image file is required", errorMessage(t, body))
}

func TestPrayerRecords_Flow(t *testing.T) {
	ts := newTestServer(t, Config{})
	familyID := createFamily(t, ts)

	create := map[string]any{"familyId": familyID, "year": 2026, "type": "CauAn", "donationAmount": 200000, "notes": "  ghi chú "}
	resp, body := do(t, ts, http.MethodPost, "/api/prayer-records", create, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	rec := decodeBody[map[string]any](t, body)
	recordID := rec["id"].(string)
	assert.Equal(t, "Nguyễn Văn An", rec["familyName"])

	resp, body = do(t, ts, http.MethodPost, "/api/prayer-records", create, "vi")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Gia đình đã được đăng ký cho năm này", errorMessage(t, body))

	resp, body = do(t, ts, http.MethodPost, "/api/prayer-records",
		map[string]any{"familyId": familyID, "year": 2026, "type": "CauSieu", "donationAmount": "50000"}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = do(t, ts, http.MethodGet, "/api/prayer-records?year=2026&type=CauAn", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeBody[map[string]any](t, body)
	assert.EqualValues(t, 1, list["totalCount"])
	assert.Equal(t, "200000", list["totalDonation"])

	resp, body = do(t, ts, http.MethodGet, "/api/prayer-records/print-data?year=2026&type=CauAn", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	printData := decodeBody[prayers.PrintData](t, body)
	require.Len(t, printData.Items, 1)
	require.Len(t, printData.Items[0].Members, 2)
	assert.Equal(t, 1960, printData.Items[0].Members[0].BirthYear)

	resp, body = do(t, ts, http.MethodGet, "/api/prayer-records/print-data?year=2026&type=CauSieu&recordId="+recordID, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Empty(t, decodeBody[prayers.PrintData](t, body).Items)

	resp, _ = do(t, ts, http.MethodGet, "/api/prayer-records/print-data?type=CauAn", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, ts, http.MethodGet, "/api/prayer-records/print-data.xlsx?year=2026&type=CauSieu", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, xlsxContentType, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "so-causieu-2026.xlsx")
	assert.NotEmpty(t, body)

	resp, body = do(t, ts, http.MethodGet, "/api/prayer-records/summary", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summaries := decodeBody[[]map[string]any](t, body)
	require.Len(t, summaries, 1)
	assert.EqualValues(t, 1, summaries[0]["cauAnCount"])

	resp, body = do(t, ts, http.MethodPut, "/api/prayer-records/"+recordID, map[string]any{"donationAmount": 300000, "notes": nil}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "300000", decodeBody[map[string]any](t, body)["donationAmount"])

	resp, body = do(t, ts, http.MethodGet, "/api/families/"+familyID+"/prayer-records", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, decodeBody[map[string]any](t, body)["totalCount"])

	resp, _ = do(t, ts, http.MethodDelete, "/api/prayer-records/"+recordID, nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, body = do(t, ts, http.MethodDelete, "/api/prayer-records/"+recordID, nil, "en")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Prayer record not found", errorMessage(t, body))
}

func TestDashboard(t *testing.T) {
	ts := newTestServer(t, Config{})
	createFamily(t, ts)

	resp, body := do(t, ts, http.MethodGet, "/api/dashboard/summary", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sum := decodeBody[map[string]any](t, body)
	assert.EqualValues(t, 2026, sum["currentYear"])
	assert.EqualValues(t, 1, sum["familyCount"])
	assert.EqualValues(t, 3, sum["totalMembers"])

	resp, body = do(t, ts, http.MethodGet, "/api/dashboard/sao-han-stats", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := decodeBody[map[string]any](t, body)
	assert.EqualValues(t, 2, stats["totalAlive"])
	assert.EqualValues(t, 1, stats["totalDeceased"])
}

func TestFortune(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp, body := do(t, ts, http.MethodGet, "/api/fortune?birthYear=1990&gender=female&year=2025", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[fortuneResponse](t, body)
	assert.Equal(t, lunar.ComputeBool(1990, false, 2025), got.Fortune)
	assert.False(t, got.IsMale)
	assert.Equal(t, 36, got.ApparentAge)

	_, body = do(t, ts, http.MethodGet, "/api/fortune?birthYear=1990", nil, "")
	got = decodeBody[fortuneResponse](t, body)
	assert.Equal(t, 2026, got.Year)
	assert.True(t, got.IsMale)

	resp, _ = do(t, ts, http.MethodGet, "/api/fortune", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = do(t, ts, http.MethodGet, "/api/fortune?birthYear=1990&gender=x", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNegotiate(t *testing.T) {
	tr, err := newTranslator(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.Equal(t, "vi", tr.negotiate("", "vi"))
	assert.Equal(t, "en", tr.negotiate("", "en"))
	assert.Equal(t, "en", tr.negotiate("en-GB", "vi"))
	assert.Equal(t, "vi", tr.negotiate("vi-VN,en;q=0.5", "en"))
	assert.Equal(t, "vi", tr.negotiate("fr", "xx"))
}
