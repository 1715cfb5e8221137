package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"pcbuilds/internal/catalog"
	"pcbuilds/internal/database"
	"pcbuilds/internal/database/dbtest"
	"pcbuilds/internal/repository"

	"github.com/go-chi/chi/v5"
)

type testServer struct {
	db     *database.DB
	router http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := dbtest.Open(t)
	settingsRepo := repository.NewSettingsRepository(db)

	builds := NewBuildHandler(db, nil)
	parts := NewPartHandler(db, nil)
	categories := NewCategoryHandler(db)
	imports := NewImportHandler(catalog.NewService(db, nil), nil, settingsRepo, 1, nil)
	scans := NewScanHandler(context.Background(), nil)
	settings := NewSettingsHandler(settingsRepo)

	r := chi.NewRouter()
	r.Get("/builds", builds.List)
	r.Get("/builds/{id}", builds.Detail)
	r.Post("/api/builds", builds.Create)
	r.Delete("/api/builds/{id}", builds.Delete)
	r.Put("/api/builds/{id}/status", builds.SetStatus)
	r.Put("/api/builds/{id}/parts", builds.SetPart)
	r.Delete("/api/builds/{id}/parts/{partId}", builds.RemovePart)
	r.Get("/parts", parts.Page)
	r.Post("/api/parts", parts.Create)
	r.Put("/api/parts/{id}/price", parts.UpdatePrice)
	r.Delete("/api/parts/{id}", parts.Delete)
	r.Get("/categories", categories.Page)
	r.Post("/api/categories", categories.Create)
	r.Delete("/api/categories/{id}", categories.Delete)
	r.Get("/import", imports.Page)
	r.Post("/import", imports.Upload)
	r.Post("/api/import/scan", scans.StartScan)
	r.Put("/api/settings", settings.Save)
	return &testServer{db: db, router: r}
}

func (s *testServer) do(t *testing.T, method, path string, form url.Values, jsonResp bool) *httptest.ResponseRecorder {
	t.Helper()
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if jsonResp {
		req.Header.Set("Accept", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func (s *testServer) createPart(t *testing.T, name, category, price string) int64 {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/parts", url.Values{"name": {name}, "category": {category}, "price": {price}}, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create part %q: status %d: %s", name, rec.Code, rec.Body.String())
	}
	var p struct{ ID int64 }
	decode(t, rec, &p)
	return p.ID
}

func (s *testServer) createBuild(t *testing.T, name string) int64 {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/builds", url.Values{"name": {name}}, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create build %q: status %d: %s", name, rec.Code, rec.Body.String())
	}
	var b struct{ ID int64 }
	decode(t, rec, &b)
	return b.ID
}

func TestCategoryCreate(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/categories", url.Values{"name": {"GPU"}}, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	tests := []struct {
		name string
		form url.Values
		want int
	}{
		{name: "duplicate ignoring case", form: url.Values{"name": {"gpu"}}, want: http.StatusConflict},
		{name: "same name other kind", form: url.Values{"name": {"GPU"}, "kind": {"tier"}}, want: http.StatusCreated},
		{name: "missing name", form: url.Values{"name": {"  "}}, want: http.StatusBadRequest},
		{name: "bad kind", form: url.Values{"name": {"Case"}, "kind": {"shelf"}}, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/categories", tt.form, true)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestCategoryDeleteUncategorizesParts(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	partID := s.createPart(t, "RTX 4070", "GPU", "600")

	p, err := repository.NewPartRepository(s.db).GetByID(ctx, partID)
	if err != nil {
		t.Fatal(err)
	}
	rec := s.do(t, http.MethodDelete, "/api/categories/"+strconv.FormatInt(*p.CategoryID, 10), nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	p, err = repository.NewPartRepository(s.db).GetByID(ctx, partID)
	if err != nil {
		t.Fatal(err)
	}
	if p.CategoryID != nil {
		t.Errorf("part still has category %d", *p.CategoryID)
	}

	rec = s.do(t, http.MethodDelete, "/api/categories/99999", nil, true)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing category status = %d, want 404", rec.Code)
	}
}

func TestPartCreateThenUpdate(t *testing.T) {
	s := newTestServer(t)
	s.createPart(t, "Ryzen 7 7800X3D", "CPU", "")

	rec := s.do(t, http.MethodPost, "/api/parts",
		url.Values{"name": {"Ryzen 7 7800X3D"}, "category": {"cpu"}, "brand": {"AMD"}, "price": {"$449.00"}}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var p struct {
		Brand string
		Price string
	}
	decode(t, rec, &p)
	if p.Brand != "AMD" || p.Price != "449" {
		t.Errorf("part = %+v", p)
	}

	n, _ := repository.NewPartRepository(s.db).Count(context.Background())
	if n != 1 {
		t.Errorf("parts = %d, want 1", n)
	}
}

func TestPartUpdatePrice(t *testing.T) {
	s := newTestServer(t)
	id := s.createPart(t, "Corsair 750W", "PSU", "100")
	path := "/api/parts/" + strconv.FormatInt(id, 10) + "/price"

	if rec := s.do(t, http.MethodPut, path, url.Values{"price": {"abc"}}, false); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid price status = %d, want 400", rec.Code)
	}

	rec := s.do(t, http.MethodPut, path, url.Values{"price": {"1,250.50"}}, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `value="1250.50"`) {
		t.Errorf("row does not show new price: %s", rec.Body.String())
	}

	if rec := s.do(t, http.MethodPut, path, url.Values{"price": {""}}, false); rec.Code != http.StatusOK {
		t.Fatalf("clear status = %d", rec.Code)
	}
	p, _ := repository.NewPartRepository(s.db).GetByID(context.Background(), id)
	if p.Price.Valid {
		t.Errorf("price = %s, want cleared", p.Price.Decimal)
	}

	if rec := s.do(t, http.MethodPut, "/api/parts/424242/price", url.Values{"price": {"5"}}, false); rec.Code != http.StatusNotFound {
		t.Errorf("missing part status = %d, want 404", rec.Code)
	}
}

func TestPartUpdatePriceRowShowsCategory(t *testing.T) {
	s := newTestServer(t)
	s.createPart(t, "Noctua NH-D15", "Cooler", "110")
	id := s.createPart(t, "Seasonic Focus <GX>", "PSU", "100")

	rec := s.do(t, http.MethodPut, "/api/parts/"+strconv.FormatInt(id, 10)+"/price", url.Values{"price": {"95"}}, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, `id="part-`+strconv.FormatInt(id, 10)+`"`) {
		t.Errorf("row for another part: %s", body)
	}
	if !strings.Contains(body, "<td>PSU</td>") {
		t.Errorf("row lost its category: %s", body)
	}
	if strings.Contains(body, "Noctua") {
		t.Errorf("row renders other parts: %s", body)
	}

	rec = s.do(t, http.MethodPut, "/api/parts/"+strconv.FormatInt(id, 10)+"/price", url.Values{"price": {"95"}}, true)
	var p struct {
		Category *struct{ Name string }
	}
	decode(t, rec, &p)
	if p.Category == nil || p.Category.Name != "PSU" {
		t.Errorf("json category = %+v", p.Category)
	}
}

type buildBody struct {
	Status string
	Total  *string
	Lines  []struct {
		PartID   int64 `json:"part_id"`
		Quantity int
	}
}

func TestBuildLines(t *testing.T) {
	s := newTestServer(t)
	cpu := s.createPart(t, "i5-14600K", "CPU", "300")
	ram := s.createPart(t, "16GB DDR5", "RAM", "50")
	fan := s.createPart(t, "Noctua NF-A12", "Fans", "")
	b := s.createBuild(t, "Office")
	linesPath := "/api/builds/" + strconv.FormatInt(b, 10) + "/parts"

	set := func(part int64, qty, override string) buildBody {
		t.Helper()
		rec := s.do(t, http.MethodPut, linesPath, url.Values{
			"part_id":        {strconv.FormatInt(part, 10)},
			"quantity":       {qty},
			"price_override": {override},
		}, true)
		if rec.Code != http.StatusOK {
			t.Fatalf("set part: status %d: %s", rec.Code, rec.Body.String())
		}
		var body buildBody
		decode(t, rec, &body)
		return body
	}

	set(cpu, "1", "")
	got := set(ram, "2", "")
	if got.Total == nil || *got.Total != "400.00" {
		t.Errorf("total = %v, want 400.00", got.Total)
	}

	got = set(ram, "2", "45")
	if got.Total == nil || *got.Total != "390.00" {
		t.Errorf("total with override = %v, want 390.00", got.Total)
	}

	got = set(fan, "3", "")
	if got.Total != nil {
		t.Errorf("total with unpriced line = %v, want absent", *got.Total)
	}

	got = set(fan, "0", "")
	if len(got.Lines) != 2 {
		t.Errorf("lines after zero quantity = %d, want 2", len(got.Lines))
	}

	got = set(fan, "abc", "")
	if len(got.Lines) != 2 {
		t.Errorf("lines after bad quantity = %d, want 2", len(got.Lines))
	}

	rec := s.do(t, http.MethodDelete, linesPath+"/"+strconv.FormatInt(ram, 10), nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("remove status = %d", rec.Code)
	}
	var body buildBody
	decode(t, rec, &body)
	if len(body.Lines) != 1 || body.Lines[0].PartID != cpu {
		t.Errorf("lines after remove = %+v", body.Lines)
	}

	rec = s.do(t, http.MethodPut, linesPath, url.Values{"part_id": {"99999"}, "quantity": {"1"}}, true)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown part status = %d, want 404", rec.Code)
	}
}

func TestBuildCreateStatusDelete(t *testing.T) {
	s := newTestServer(t)
	id := s.createBuild(t, "Gamer X")
	path := "/api/builds/" + strconv.FormatInt(id, 10)

	if rec := s.do(t, http.MethodPost, "/api/builds", url.Values{"name": {"Gamer X"}}, true); rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", rec.Code)
	}

	if rec := s.do(t, http.MethodPut, path+"/status", url.Values{"status": {"sold"}}, true); rec.Code != http.StatusBadRequest {
		t.Errorf("bad status = %d, want 400", rec.Code)
	}
	if rec := s.do(t, http.MethodPut, path+"/status", url.Values{"status": {"approved"}}, true); rec.Code != http.StatusOK {
		t.Fatalf("set status = %d", rec.Code)
	}

	rec := s.do(t, http.MethodGet, path, nil, true)
	var body buildBody
	decode(t, rec, &body)
	if body.Status != "approved" {
		t.Errorf("status = %q, want approved", body.Status)
	}
	if body.Total == nil || *body.Total != "0.00" {
		t.Errorf("empty build total = %v, want 0.00", body.Total)
	}

	if rec := s.do(t, http.MethodGet, "/builds?status=approved", nil, false); !strings.Contains(rec.Body.String(), "Gamer X") {
		t.Errorf("filtered list does not contain build")
	}
	if rec := s.do(t, http.MethodGet, "/builds?status=draft", nil, false); strings.Contains(rec.Body.String(), "Gamer X") {
		t.Errorf("draft list contains approved build")
	}

	if rec := s.do(t, http.MethodDelete, path, nil, true); rec.Code != http.StatusOK {
		t.Fatalf("delete = %d", rec.Code)
	}
	if rec := s.do(t, http.MethodDelete, path, nil, true); rec.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", rec.Code)
	}
}

func TestPartDeleteRemovesLines(t *testing.T) {
	s := newTestServer(t)
	part := s.createPart(t, "Samsung 990 Pro", "Storage", "150")
	b := s.createBuild(t, "Creator")
	s.do(t, http.MethodPut, "/api/builds/"+strconv.FormatInt(b, 10)+"/parts",
		url.Values{"part_id": {strconv.FormatInt(part, 10)}, "quantity": {"1"}}, true)

	if rec := s.do(t, http.MethodDelete, "/api/parts/"+strconv.FormatInt(part, 10), nil, true); rec.Code != http.StatusOK {
		t.Fatalf("delete = %d", rec.Code)
	}
	lines, err := repository.NewBuildRepository(s.db).Lines(context.Background(), b)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 0 {
		t.Errorf("lines = %d, want 0", len(lines))
	}
}

func upload(t *testing.T, s *testServer, name string, data []byte, jsonResp bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(data)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if jsonResp {
		req.Header.Set("Accept", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestImportUpload(t *testing.T) {
	s := newTestServer(t)
	csv := []byte("Name,Category,Price\nRTX 4060,GPU,৳ 35000\nB650M,Motherboard,18000\n")

	rec := upload(t, s, "parts.csv", csv, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var res struct {
		Mode   string
		Simple struct {
			PartsAdded int `json:"parts_added"`
		}
	}
	decode(t, rec, &res)
	if res.Mode != "simple" || res.Simple.PartsAdded != 2 {
		t.Errorf("result = %+v", res)
	}

	rec = upload(t, s, "parts.csv", csv, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Parts added: 0, updated: 0") {
		t.Errorf("summary = %s", rec.Body.String())
	}
}

func TestImportUploadTooLarge(t *testing.T) {
	s := newTestServer(t)
	big := bytes.Repeat([]byte("a,b\n"), 1<<19)
	if rec := upload(t, s, "big.csv", big, true); rec.Code == http.StatusOK {
		t.Errorf("oversized upload accepted")
	}
}

func TestScanWithoutFolder(t *testing.T) {
	s := newTestServer(t)
	if rec := s.do(t, http.MethodPost, "/api/import/scan", nil, true); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSettingsSave(t *testing.T) {
	s := newTestServer(t)
	repo := repository.NewSettingsRepository(s.db)
	ctx := context.Background()

	if rec := s.do(t, http.MethodPut, "/api/settings", url.Values{}, false); rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if repo.GetBool(ctx, repository.SettingAutoImport, true) {
		t.Errorf("auto import still enabled")
	}

	s.do(t, http.MethodPut, "/api/settings", url.Values{"auto_import_enabled": {"true"}}, false)
	if !repo.GetBool(ctx, repository.SettingAutoImport, false) {
		t.Errorf("auto import not enabled")
	}
}

func TestPagesRender(t *testing.T) {
	s := newTestServer(t)
	s.createPart(t, "Lian Li O11", "Case", "")
	for _, path := range []string{"/builds", "/parts", "/categories", "/import"} {
		rec := s.do(t, http.MethodGet, path, nil, false)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d", path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "<html") {
			t.Errorf("GET %s is not a full page", path)
		}
	}
}

func TestSetLang(t *testing.T) {
	h := NewLangHandler()
	tests := []struct {
		name     string
		query    string
		referer  string
		wantLang string
		wantLoc  string
	}{
		{name: "back to page", query: "it", referer: "http://example.com/builds?status=draft", wantLang: "it", wantLoc: "/builds?status=draft"},
		{name: "no referer", query: "en", wantLang: "en", wantLoc: "/"},
		{name: "other host", query: "it", referer: "https://evil.test/phish", wantLang: "it", wantLoc: "/"},
		{name: "protocol relative", query: "it", referer: "//evil.test/x", wantLang: "it", wantLoc: "/"},
		{name: "unsupported", query: "xx", referer: "/parts", wantLang: "en", wantLoc: "/parts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/lang?lang="+tt.query, nil)
			if tt.referer != "" {
				req.Header.Set("Referer", tt.referer)
			}
			rec := httptest.NewRecorder()
			h.SetLang(rec, req)

			if rec.Code != http.StatusSeeOther {
				t.Fatalf("status = %d", rec.Code)
			}
			if loc := rec.Header().Get("Location"); loc != tt.wantLoc {
				t.Errorf("Location = %q, want %q", loc, tt.wantLoc)
			}
			cookies := rec.Result().Cookies()
			if len(cookies) != 1 || cookies[0].Value != tt.wantLang {
				t.Errorf("cookies = %+v, want lang %q", cookies, tt.wantLang)
			}
		})
	}
}
