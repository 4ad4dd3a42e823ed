package tasks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/jackwharrison/krcs-bitrix/internal/config"
	"github.com/jackwharrison/krcs-bitrix/internal/i18n"
	"github.com/jackwharrison/krcs-bitrix/pkg/bitrix"
)

// fakeCRM is an in-memory stand-in for the Bitrix24 REST API.
type fakeCRM struct {
	mu sync.Mutex

	items  map[string][]map[string]any // entityTypeId -> records
	fields map[string]string           // entityTypeId -> crm.item.fields result JSON

	updates    map[int64]map[string]any
	deletes    []int64
	requests   int
	failUpdate map[int64]bool
}

func newFakeCRM() *fakeCRM {
	return &fakeCRM{
		items:      make(map[string][]map[string]any),
		fields:     make(map[string]string),
		updates:    make(map[int64]map[string]any),
		failUpdate: make(map[int64]bool),
	}
}

func (f *fakeCRM) add(entityTypeID string, record map[string]any) {
	f.items[entityTypeID] = append(f.items[entityTypeID], record)
}

func (f *fakeCRM) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.requests++

		switch {
		case strings.Contains(r.URL.Path, "crm.item.list"):
			f.handleList(w, r)
		case strings.Contains(r.URL.Path, "crm.item.get"):
			f.handleGet(w, r)
		case strings.Contains(r.URL.Path, "crm.item.update"):
			f.handleUpdate(w, r)
		case strings.Contains(r.URL.Path, "crm.item.delete"):
			f.handleDelete(w, r)
		case strings.Contains(r.URL.Path, "crm.item.fields"):
			entityType := r.URL.Query().Get("entityTypeId")
			body, ok := f.fields[entityType]
			if !ok {
				body = `{"fields":{}}`
			}
			fmt.Fprintf(w, `{"result":%s}`, body)
		default:
			t.Errorf("unexpected API call: %s", r.URL.Path)
			http.NotFound(w, r)
		}
	})
}

func (f *fakeCRM) handleList(w http.ResponseWriter, r *http.Request) {
	entityType := r.URL.Query().Get("entityTypeId")
	stageFilter := r.URL.Query().Get("filter[stageId]")

	var matched []map[string]any
	for _, item := range f.items[entityType] {
		if stageFilter != "" {
			stage, _ := item["stageId"].(string)
			if stage != stageFilter {
				continue
			}
		}
		matched = append(matched, item)
	}

	payload, _ := json.Marshal(map[string]any{"items": matched})
	fmt.Fprintf(w, `{"result":%s}`, payload)
}

func (f *fakeCRM) handleGet(w http.ResponseWriter, r *http.Request) {
	entityType := r.URL.Query().Get("entityTypeId")
	id, _ := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)

	for _, item := range f.items[entityType] {
		itemID, _ := item["id"].(int)
		if int64(itemID) == id {
			payload, _ := json.Marshal(map[string]any{"item": item})
			fmt.Fprintf(w, `{"result":%s}`, payload)
			return
		}
	}
	fmt.Fprint(w, `{"error":"NOT_FOUND","error_description":"item not found"}`)
}

func (f *fakeCRM) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID     int64          `json:"id"`
		Fields map[string]any `json:"fields"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	if f.failUpdate[body.ID] {
		fmt.Fprint(w, `{"error":"ACCESS_DENIED","error_description":"update rejected"}`)
		return
	}
	f.updates[body.ID] = body.Fields
	fmt.Fprintf(w, `{"result":{"item":{"id":%d}}}`, body.ID)
}

func (f *fakeCRM) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	f.deletes = append(f.deletes, id)
	fmt.Fprint(w, `{"result":true}`)
}

func testConfig(serverURL string) config.Config {
	cfg := config.Config{
		WebhookURL:              serverURL,
		PortalURL:               "https://portal.example",
		BeneficiaryEntityTypeID: 1036,
		ProjectEntityTypeID:     1040,
		PaymentEntityTypeID:     1044,
		ChildEntityTypeID:       1048,
		YesLabel:                "yes",
	}
	cfg.Stages = config.Stages{
		Registration:     "DT1036_10:NEW",
		Verified:         "DT1036_10:UC_VERIFIED",
		Eligible:         "DT1036_10:UC_ELIGIBLE",
		ProjectSelection: "DT1040_14:UC_SELECTION",
		Completed:        "DT1036_10:UC_DONE",
	}
	cfg.Fields = config.Fields{
		NationalID:         "ufCrm5PassportId",
		FullName:           "ufCrm5FullName",
		DuplicateFlag:      "ufCrm5Duplicate",
		DuplicateReason:    "ufCrm5DuplicateReason",
		ChildDOB:           "ufCrm11Dob",
		ChildAge:           "ufCrm11Age",
		HouseholdFlag:      "ufCrm5ChildDuplicate",
		HouseholdMatches:   "ufCrm5ChildDuplicateNames",
		Eligible:           "ufCrm5Eligible",
		ProgramCount:       "ufCrm5ProgramCount",
		ProgramNames:       "ufCrm5ProgramNames",
		PaymentNationalID:  "ufCrm9PassportId",
		PaymentProjectType: "ufCrm9ProjectType",
		PreviousProjects:   "ufCrm5PreviousProjects",
		AssignmentDate:     "ufCrm5AssignedAt",
	}
	cfg.Enums = config.Enums{
		DuplicateFlag: config.EnumPair{Unique: "131", Duplicate: "132"},
		HouseholdFlag: config.EnumPair{Unique: "141", Duplicate: "142"},
	}
	return cfg
}

func newRunner(t *testing.T, crm *fakeCRM) (*Runner, *bytes.Buffer) {
	t.Helper()
	server := httptest.NewServer(crm.handler(t))
	t.Cleanup(server.Close)

	var out bytes.Buffer
	return &Runner{
		Client:  bitrix.New(server.URL),
		Config:  testConfig(server.URL),
		Printer: i18n.New("en"),
		Out:     &out,
	}, &out
}
