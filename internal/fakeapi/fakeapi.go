// Package fakeapi is an in-memory hypermedia backend for customers and
// trainings. It speaks the same envelope format as the real API and adds
// hooks for counting, failing and holding requests.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// Prefix is the path under which the API is mounted.
const Prefix = "/api"

type Customer struct {
	Firstname     string `json:"firstname"`
	Lastname      string `json:"lastname"`
	Streetaddress string `json:"streetaddress"`
	Postcode      string `json:"postcode"`
	City          string `json:"city"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
}

type training struct {
	Date       time.Time
	Duration   int
	Activity   string
	CustomerID int
}

// API holds the backend state. The zero value is not usable; call New.
type API struct {
	mu        sync.Mutex
	nextID    int
	customers map[int]Customer
	trainings map[int]training
	faults    map[string]int
	holds     map[string]chan struct{}
	hits      map[string]int
}

func New() *API {
	return &API{
		nextID:    1,
		customers: make(map[int]Customer),
		trainings: make(map[int]training),
		faults:    make(map[string]int),
		holds:     make(map[string]chan struct{}),
		hits:      make(map[string]int),
	}
}

// CustomerPath returns the path of a customer resource.
func CustomerPath(id int) string {
	return fmt.Sprintf("%s/customers/%d", Prefix, id)
}

// TrainingPath returns the path of a training resource.
func TrainingPath(id int) string {
	return fmt.Sprintf("%s/trainings/%d", Prefix, id)
}

// AddCustomer stores c and returns its id.
func (a *API) AddCustomer(c Customer) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.nextID
	a.nextID++
	a.customers[id] = c
	return id
}

// AddTraining stores a training owned by customerID. The customer does not
// have to exist, which yields a dangling customer link. A customerID of 0
// stores a training without any customer link.
func (a *API) AddTraining(customerID int, date time.Time, duration int, activity string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.nextID
	a.nextID++
	a.trainings[id] = training{Date: date, Duration: duration, Activity: activity, CustomerID: customerID}
	return id
}

// Customer returns the stored customer with the given id.
func (a *API) Customer(id int) (Customer, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.customers[id]
	return c, ok
}

// TrainingCount returns the number of stored trainings.
func (a *API) TrainingCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.trainings)
}

// Fail makes every request for path answer with status until cleared with
// status 0.
func (a *API) Fail(path string, status int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if status == 0 {
		delete(a.faults, path)
		return
	}
	a.faults[path] = status
}

// Hold blocks requests for path until the returned release func is called.
func (a *API) Hold(path string) (release func()) {
	ch := make(chan struct{})
	a.mu.Lock()
	a.holds[path] = ch
	a.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.holds, path)
			a.mu.Unlock()
			close(ch)
		})
	}
}

// Hits returns how many requests for "METHOD path" were received.
func (a *API) Hits(method, path string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hits[method+" "+path]
}

// Handler returns the chi router serving the API under Prefix.
func (a *API) Handler() http.Handler {
	mux := chi.NewRouter()
	mux.Use(a.intercept)

	mux.Route(Prefix, func(r chi.Router) {
		r.Get("/", a.root)
		r.Get("/customers", a.listCustomers)
		r.Post("/customers", a.createCustomer)
		r.Get("/customers/{id}", a.getCustomer)
		r.Put("/customers/{id}", a.updateCustomer)
		r.Delete("/customers/{id}", a.deleteCustomer)
		r.Get("/customers/{id}/trainings", a.customerTrainings)
		r.Get("/trainings", a.listTrainings)
		r.Post("/trainings", a.createTraining)
		r.Get("/trainings/{id}", a.getTraining)
		r.Delete("/trainings/{id}", a.deleteTraining)
	})
	return mux
}

func (a *API) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimRight(r.URL.Path, "/")
		if path == "" {
			path = "/"
		}

		a.mu.Lock()
		a.hits[r.Method+" "+path]++
		status := a.faults[path]
		hold := a.holds[path]
		a.mu.Unlock()

		if hold != nil {
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}
		if status != 0 {
			writeJSON(w, status, map[string]any{"status": status, "error": http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func link(href string) map[string]string {
	return map[string]string{"href": href}
}

func (a *API) customerDoc(r *http.Request, id int, c Customer) map[string]any {
	self := baseURL(r) + CustomerPath(id)
	return map[string]any{
		"firstname":     c.Firstname,
		"lastname":      c.Lastname,
		"streetaddress": c.Streetaddress,
		"postcode":      c.Postcode,
		"city":          c.City,
		"email":         c.Email,
		"phone":         c.Phone,
		"_links": map[string]any{
			"self":      link(self),
			"customer":  link(self),
			"trainings": link(self + "/trainings"),
		},
	}
}

func (a *API) trainingDoc(r *http.Request, id int, t training) map[string]any {
	self := baseURL(r) + TrainingPath(id)
	links := map[string]any{
		"self":     link(self),
		"training": link(self),
	}
	if t.CustomerID != 0 {
		links["customer"] = link(baseURL(r) + CustomerPath(t.CustomerID))
	}
	return map[string]any{
		"date":     t.Date.UTC().Format("2006-01-02T15:04:05.000-07:00"),
		"duration": t.Duration,
		"activity": t.Activity,
		"_links":   links,
	}
}

func collection(r *http.Request, rel string, items []map[string]any) map[string]any {
	if items == nil {
		items = []map[string]any{}
	}
	return map[string]any{
		"_embedded": map[string]any{rel: items},
		"_links":    map[string]any{"self": link(baseURL(r) + r.URL.Path)},
		"page": map[string]int{
			"size":          20,
			"totalElements": len(items),
			"totalPages":    1,
			"number":        0,
		},
	}
}

func (a *API) root(w http.ResponseWriter, r *http.Request) {
	base := baseURL(r) + Prefix
	writeJSON(w, http.StatusOK, map[string]any{
		"_links": map[string]any{
			"customers": link(base + "/customers"),
			"trainings": link(base + "/trainings"),
		},
	})
}

func (a *API) listCustomers(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	ids := sortedKeys(a.customers)
	items := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		items = append(items, a.customerDoc(r, id, a.customers[id]))
	}
	a.mu.Unlock()

	writeJSON(w, http.StatusOK, collection(r, "customers", items))
}

func (a *API) createCustomer(w http.ResponseWriter, r *http.Request) {
	var c Customer
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	id := a.AddCustomer(c)
	writeJSON(w, http.StatusCreated, a.customerDoc(r, id, c))
}

func (a *API) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	a.mu.Lock()
	c, found := a.customers[id]
	a.mu.Unlock()
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, a.customerDoc(r, id, c))
}

func (a *API) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var c Customer
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	a.mu.Lock()
	_, found := a.customers[id]
	if found {
		a.customers[id] = c
	}
	a.mu.Unlock()
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, a.customerDoc(r, id, c))
}

func (a *API) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	a.mu.Lock()
	_, found := a.customers[id]
	delete(a.customers, id)
	for tid, t := range a.trainings {
		if t.CustomerID == id {
			delete(a.trainings, tid)
		}
	}
	a.mu.Unlock()
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) customerTrainings(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	a.mu.Lock()
	var items []map[string]any
	for _, tid := range sortedKeys(a.trainings) {
		if t := a.trainings[tid]; t.CustomerID == id {
			items = append(items, a.trainingDoc(r, tid, t))
		}
	}
	a.mu.Unlock()
	writeJSON(w, http.StatusOK, collection(r, "trainings", items))
}

func (a *API) listTrainings(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	ids := sortedKeys(a.trainings)
	items := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		items = append(items, a.trainingDoc(r, id, a.trainings[id]))
	}
	a.mu.Unlock()

	writeJSON(w, http.StatusOK, collection(r, "trainings", items))
}

type createTrainingBody struct {
	Date     time.Time `json:"date"`
	Duration int       `json:"duration"`
	Activity string    `json:"activity"`
	Customer string    `json:"customer"`
}

func (a *API) createTraining(w http.ResponseWriter, r *http.Request) {
	var body createTrainingBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	i := strings.LastIndexByte(body.Customer, '/')
	customerID, err := strconv.Atoi(body.Customer[i+1:])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid customer link"})
		return
	}
	id := a.AddTraining(customerID, body.Date, body.Duration, body.Activity)

	a.mu.Lock()
	t := a.trainings[id]
	a.mu.Unlock()
	writeJSON(w, http.StatusCreated, a.trainingDoc(r, id, t))
}

func (a *API) getTraining(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	a.mu.Lock()
	t, found := a.trainings[id]
	a.mu.Unlock()
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, a.trainingDoc(r, id, t))
}

func (a *API) deleteTraining(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	a.mu.Lock()
	_, found := a.trainings[id]
	delete(a.trainings, id)
	a.mu.Unlock()
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/hal+json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
