package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ryanbastic/gymdesk/internal/fakeapi"
)

func TestListCustomers(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedCustomer(t, ann())
	env.seedCustomer(t, bob())

	w := env.do(t, http.MethodGet, "/v1/customers", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", w.Code, http.StatusOK)
	}
	resp := decode[CustomerListResponse](t, w)
	if len(resp.Rows) != 2 {
		t.Fatalf("rows: got %d, want 2", len(resp.Rows))
	}
	if resp.Error != "" {
		t.Errorf("error: got %q, want empty", resp.Error)
	}
}

func TestListCustomers_Filter(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedCustomer(t, ann())
	env.seedCustomer(t, bob())

	resp := decode[CustomerListResponse](t, env.do(t, http.MethodGet, "/v1/customers?q=STONE", nil))
	if resp.Filter != "STONE" {
		t.Errorf("filter: got %q, want %q", resp.Filter, "STONE")
	}
	if len(resp.Rows) != 1 || resp.Rows[0].Firstname != "Bob" {
		t.Errorf("rows: got %+v, want only Bob", resp.Rows)
	}
}

func TestListCustomers_FilterIsPerRequest(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedCustomer(t, ann())
	env.seedCustomer(t, bob())
	env.customers.SetFilter("Stone")

	resp := decode[CustomerListResponse](t, env.do(t, http.MethodGet, "/v1/customers?q=ann", nil))
	if resp.Filter != "ann" || len(resp.Rows) != 1 || resp.Rows[0].Firstname != "Ann" {
		t.Errorf("q=ann: got filter %q rows %+v, want only Ann", resp.Filter, resp.Rows)
	}

	resp = decode[CustomerListResponse](t, env.do(t, http.MethodGet, "/v1/customers", nil))
	if resp.Filter != "" || len(resp.Rows) != 2 {
		t.Errorf("no q: got filter %q and %d rows, want every row", resp.Filter, len(resp.Rows))
	}
	if got := env.customers.Filter(); got != "Stone" {
		t.Errorf("board filter: got %q, want it untouched", got)
	}
}

func TestListCustomers_ConcurrentFilters(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedCustomer(t, ann())
	env.seedCustomer(t, bob())

	var wg sync.WaitGroup
	for _, tc := range []struct{ q, want string }{{"ann", "Ann"}, {"stone", "Bob"}} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				var resp CustomerListResponse
				if err := json.Unmarshal(get(env, "/v1/customers?q="+tc.q), &resp); err != nil {
					t.Errorf("decode: %v", err)
					return
				}
				if resp.Filter != tc.q || len(resp.Rows) != 1 || resp.Rows[0].Firstname != tc.want {
					t.Errorf("q=%s: got filter %q rows %+v", tc.q, resp.Filter, resp.Rows)
					return
				}
				body := string(get(env, "/v1/customers/export?q="+tc.q))
				if strings.Count(body, "\n") != 2 || !strings.HasPrefix(strings.SplitN(body, "\n", 2)[1], tc.want+",") {
					t.Errorf("export q=%s: got %q", tc.q, body)
					return
				}
			}
		}()
	}
	wg.Wait()
}

// get is safe to call from goroutines other than the test's.
func get(env *testEnv, target string) []byte {
	w := httptest.NewRecorder()
	env.server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w.Body.Bytes()
}

func TestListCustomers_ShowsLoadError(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedCustomer(t, ann())

	env.backend.Fail(fakeapi.Prefix+"/customers", http.StatusInternalServerError)
	w := env.do(t, http.MethodPost, "/v1/customers/reload", nil)
	if w.Code != http.StatusBadGateway {
		t.Errorf("reload status: got %d, want %d", w.Code, http.StatusBadGateway)
	}

	resp := decode[CustomerListResponse](t, env.do(t, http.MethodGet, "/v1/customers", nil))
	if len(resp.Rows) != 1 {
		t.Errorf("rows: got %d, want the 1 previously loaded", len(resp.Rows))
	}
	if resp.Error == "" {
		t.Error("error: want the failed load to be reported")
	}
}

func TestReloadCustomers_UpstreamDown(t *testing.T) {
	env := newTestEnv(t, nil)
	env.upstream.Close()

	w := env.do(t, http.MethodPost, "/v1/customers/reload", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestCreateCustomer(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/v1/customers", map[string]string{
		"firstname": "Ann", "lastname": "Lee", "streetaddress": "Main 1", "postcode": "00100",
		"city": "Helsinki", "email": "ann@example.com", "phone": "040-1",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d\nbody: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	resp := decode[CustomerListResponse](t, w)
	if len(resp.Rows) != 1 || resp.Rows[0].Email != "ann@example.com" {
		t.Errorf("rows: got %+v", resp.Rows)
	}
}

func TestCreateCustomer_BlankFields(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/v1/customers", map[string]string{
		"firstname": "Ann", "lastname": " ", "streetaddress": "Main 1", "postcode": "00100",
		"city": "Helsinki", "email": "", "phone": "040-1",
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
	body := w.Body.String()
	if !strings.Contains(body, "body.lastname") || !strings.Contains(body, "body.email") {
		t.Errorf("body: want lastname and email details, got %s", body)
	}
	if n := env.backend.Hits(http.MethodPost, fakeapi.Prefix+"/customers"); n != 0 {
		t.Errorf("upstream POSTs: got %d, want 0", n)
	}
}

func TestDeleteCustomer(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.seedCustomer(t, ann())
	self := env.self(fakeapi.CustomerPath(id))

	w := env.do(t, http.MethodDelete, withSelf("/v1/customers", self), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d\nbody: %s", w.Code, http.StatusNoContent, w.Body.String())
	}
	if _, ok := env.backend.Customer(id); ok {
		t.Error("customer still stored upstream")
	}

	w = env.do(t, http.MethodDelete, withSelf("/v1/customers", self), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete: got %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestAddTraining(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.seedCustomer(t, ann())
	self := env.self(fakeapi.CustomerPath(id))

	w := env.do(t, http.MethodPost, withSelf("/v1/customers/trainings", self), map[string]any{
		"date":     time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC),
		"duration": 45,
		"activity": "Spinning",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d\nbody: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	if n := env.backend.TrainingCount(); n != 1 {
		t.Errorf("trainings upstream: got %d, want 1", n)
	}
	if rows := env.trainings.Rows(); len(rows) != 1 || rows[0].Activity != "Spinning" {
		t.Errorf("training board not reloaded: %+v", rows)
	}
}

func TestAddTraining_Invalid(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.seedCustomer(t, ann())
	self := env.self(fakeapi.CustomerPath(id))

	w := env.do(t, http.MethodPost, withSelf("/v1/customers/trainings", self), map[string]any{
		"date":     time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC),
		"duration": 0,
		"activity": "",
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
	if n := env.backend.TrainingCount(); n != 0 {
		t.Errorf("trainings upstream: got %d, want 0", n)
	}
}

func TestAddTraining_UnknownCustomer(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, withSelf("/v1/customers/trainings", "http://nowhere/customers/1"), map[string]any{
		"date":     time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC),
		"duration": 45,
		"activity": "Spinning",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestExportCustomers(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedCustomer(t, ann())
	env.seedCustomer(t, bob())

	w := env.do(t, http.MethodGet, "/v1/customers/export?q=turku", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type: got %q", ct)
	}
	want := "First Name,Last Name,Address,Post Code,City,Email,Phone\n" +
		"Bob,Stone,Side 2,20100,Turku,bob@example.com,040-2\n"
	if got := w.Body.String(); got != want {
		t.Errorf("body:\ngot  %q\nwant %q", got, want)
	}
}

func TestExportCustomers_IgnoresBoardFilter(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedCustomer(t, ann())
	env.seedCustomer(t, bob())
	env.customers.SetFilter("Stone")

	body := env.do(t, http.MethodGet, "/v1/customers/export", nil).Body.String()
	if !strings.Contains(body, "Ann,Lee") || !strings.Contains(body, "Bob,Stone") {
		t.Errorf("export without q: got %q, want every row", body)
	}
}
