package importer

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/require"

	"github.com/alexander-akhmetov/alertsync/pkg/grafana"
	"github.com/alexander-akhmetov/alertsync/pkg/notifier"
)

// fakeGrafana is an in-memory provisioning API.
type fakeGrafana struct {
	mu sync.Mutex

	folders       []map[string]string
	rules         map[string]map[string]any
	ruleOrder     []string
	groups        map[string]int
	contactPoints []map[string]any
	policies      map[string]any

	// hiddenGroupReads answers that many rule group reads with no rules.
	hiddenGroupReads int
	// rejectedGroupPuts answers that many rule group updates with 400.
	rejectedGroupPuts int
	// terminalGroupPutStatus, when set, answers every rule group update.
	terminalGroupPutStatus int
	// missingGroups answers every rule group read with 404.
	missingGroups bool
	// conflictOnCreate answers every rule creation with 409.
	conflictOnCreate bool

	requests []string
	nextID   int
}

func newFakeGrafana(t *testing.T) (*fakeGrafana, *grafana.Client) {
	t.Helper()

	previous := notifier.Output
	notifier.Output = io.Discard
	t.Cleanup(func() { notifier.Output = previous })

	fake := &fakeGrafana{
		rules:  map[string]map[string]any{},
		groups: map[string]int{},
	}
	server := httptest.NewServer(fake.router())
	t.Cleanup(server.Close)

	client, err := grafana.New(grafana.Config{
		URL:           server.URL,
		Token:         "test",
		Verify:        true,
		Timeout:       5 * time.Second,
		RetryWaitTime: time.Millisecond,
	})
	require.NoError(t, err)
	return fake, client
}

func (f *fakeGrafana) router() http.Handler {
	r := chi.NewRouter()
	r.Use(f.record)

	r.Get("/api/folders", f.listFolders)
	r.Post("/api/folders", f.createFolder)

	r.Post("/api/v1/provisioning/alert-rules", f.createRule)
	r.Get("/api/v1/provisioning/alert-rules/{uid}", f.getRule)
	r.Put("/api/v1/provisioning/alert-rules/{uid}", f.updateRule)
	r.Get("/api/v1/provisioning/folder/{folderUid}/rule-groups/{group}", f.getGroup)
	r.Put("/api/v1/provisioning/folder/{folderUid}/rule-groups/{group}", f.putGroup)

	r.Get("/api/v1/provisioning/contact-points", f.listContactPoints)
	r.Post("/api/v1/provisioning/contact-points", f.createContactPoint)
	r.Put("/api/v1/provisioning/contact-points/{uid}", f.updateContactPoint)
	r.Put("/api/v1/provisioning/policies", f.putPolicies)
	return r
}

func (f *fakeGrafana) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// countPrefix returns how many requests started with prefix.
func (f *fakeGrafana) countPrefix(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, r := range f.requests {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

// count returns how many requests matched "METHOD path".
func (f *fakeGrafana) count(request string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, r := range f.requests {
		if r == request {
			n++
		}
	}
	return n
}

func (f *fakeGrafana) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func reply(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func readBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		reply(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return nil, false
	}
	return body, true
}

func (f *fakeGrafana) addFolder(title string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	uid := f.id("folder")
	f.folders = append(f.folders, map[string]string{"uid": uid, "title": title})
	return uid
}

func (f *fakeGrafana) listFolders(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reply(w, http.StatusOK, f.folders)
}

func (f *fakeGrafana) createFolder(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	folder := map[string]string{"uid": f.id("folder"), "title": fmt.Sprint(body["title"])}
	f.folders = append(f.folders, folder)
	reply(w, http.StatusOK, folder)
}

func (f *fakeGrafana) createRule(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	uid, _ := body["uid"].(string)
	if _, exists := f.rules[uid]; exists || f.conflictOnCreate {
		reply(w, http.StatusConflict, map[string]string{"message": "a rule with this uid already exists"})
		return
	}
	if title, _ := body["title"].(string); title == "" {
		reply(w, http.StatusBadRequest, map[string]string{"message": "title is required"})
		return
	}
	if uid == "" {
		uid = f.id("rule")
		body["uid"] = uid
	}
	f.rules[uid] = body
	f.ruleOrder = append(f.ruleOrder, uid)
	reply(w, http.StatusCreated, body)
}

func (f *fakeGrafana) getRule(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rule, ok := f.rules[chi.URLParam(r, "uid")]
	if !ok {
		reply(w, http.StatusNotFound, map[string]string{"message": "rule not found"})
		return
	}
	reply(w, http.StatusOK, rule)
}

func (f *fakeGrafana) updateRule(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	uid := chi.URLParam(r, "uid")
	if _, exists := f.rules[uid]; !exists {
		reply(w, http.StatusNotFound, map[string]string{"message": "rule not found"})
		return
	}
	body["uid"] = uid
	f.rules[uid] = body
	reply(w, http.StatusOK, body)
}

func (f *fakeGrafana) groupRules(folderUID, group string) []map[string]any {
	var rules []map[string]any
	for _, uid := range f.ruleOrder {
		rule := f.rules[uid]
		if rule["folderUID"] == folderUID && rule["ruleGroup"] == group {
			rules = append(rules, rule)
		}
	}
	return rules
}

func (f *fakeGrafana) getGroup(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	folderUID, group := chi.URLParam(r, "folderUid"), chi.URLParam(r, "group")
	rules := f.groupRules(folderUID, group)
	if len(rules) == 0 || f.missingGroups {
		reply(w, http.StatusNotFound, map[string]string{"message": "rule group not found"})
		return
	}
	if f.hiddenGroupReads > 0 {
		f.hiddenGroupReads--
		rules = []map[string]any{}
	}
	reply(w, http.StatusOK, map[string]any{
		"title":     group,
		"folderUid": folderUID,
		"interval":  f.groups[folderUID+"/"+group],
		"rules":     rules,
	})
}

func (f *fakeGrafana) putGroup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Interval int              `json:"interval"`
		Rules    []map[string]any `json:"rules"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		reply(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Header.Get("X-Disable-Provenance") != "true" {
		reply(w, http.StatusForbidden, map[string]string{"message": "provenance header missing"})
		return
	}
	if f.terminalGroupPutStatus != 0 {
		reply(w, f.terminalGroupPutStatus, map[string]string{"message": "rule group update refused"})
		return
	}
	if f.rejectedGroupPuts > 0 {
		f.rejectedGroupPuts--
		reply(w, http.StatusBadRequest, map[string]string{"message": "rule group is not ready"})
		return
	}
	if len(body.Rules) == 0 {
		reply(w, http.StatusBadRequest, map[string]string{"message": "rule group has no rules"})
		return
	}
	f.groups[chi.URLParam(r, "folderUid")+"/"+chi.URLParam(r, "group")] = body.Interval
	reply(w, http.StatusOK, body)
}

func (f *fakeGrafana) interval(folderUID, group string) (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	seconds, ok := f.groups[folderUID+"/"+group]
	return seconds, ok
}

func (f *fakeGrafana) listContactPoints(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	contactPoints := f.contactPoints
	if contactPoints == nil {
		contactPoints = []map[string]any{}
	}
	reply(w, http.StatusOK, contactPoints)
}

func (f *fakeGrafana) createContactPoint(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if uid, _ := body["uid"].(string); uid == "" {
		body["uid"] = f.id("cp")
	}
	f.contactPoints = append(f.contactPoints, body)
	reply(w, http.StatusAccepted, body)
}

func (f *fakeGrafana) updateContactPoint(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	uid := chi.URLParam(r, "uid")
	for i, cp := range f.contactPoints {
		if cp["uid"] == uid {
			body["uid"] = uid
			f.contactPoints[i] = body
			reply(w, http.StatusAccepted, map[string]string{"message": "contactpoint updated"})
			return
		}
	}
	reply(w, http.StatusNotFound, map[string]string{"message": "contact point not found"})
}

func (f *fakeGrafana) putPolicies(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.policies = body
	reply(w, http.StatusAccepted, map[string]string{"message": "policies updated"})
}
