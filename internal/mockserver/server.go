// Package mockserver is a deterministic stand-in for the LawAI backend,
// used for local development and as a test fixture.
package mockserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/lawai/internal/model"
)

// Server holds the in-memory backend state
type Server struct {
	mu       sync.Mutex
	cases    []model.CaseRecord
	nextID   int
	answers  map[string]json.RawMessage
	laws     []model.Law
	docs     []model.Document
	failures map[string]int // path -> status for the next request
	requests map[string]int
	hold     chan struct{}
}

// New creates a server seeded with sample data
func New() *Server {
	gin.SetMode(gin.ReleaseMode)

	return &Server{
		cases: []model.CaseRecord{
			{ID: "1", CaseHeading: "Chain snatching near bus stand", Query: "my gold chain was snatched", ApplicableArticle: "Section 379: Punishment for theft", Tags: model.Tags{"theft", "IPC"}, Status: model.StatusAssigned},
			{ID: "2", CaseHeading: "Assault at market", Query: "a shopkeeper was beaten", ApplicableArticle: "Section 323: Voluntarily causing hurt", Tags: model.Tags{"assault"}, Status: model.StatusUnderInvestigation},
			{ID: "3", CaseHeading: "Cheque fraud", Query: "forged cheque deposited", ApplicableArticle: "Section 420: Cheating", Tags: model.Tags{"fraud"}, Status: model.StatusClosed},
		},
		nextID:  4,
		answers: make(map[string]json.RawMessage),
		laws: []model.Law{
			{ID: "1", SectionID: "302", SectionTitle: "Punishment for murder", Description: "Whoever commits murder shall be punished with death, or imprisonment for life, and shall also be liable to fine.", Act: "IPC"},
			{ID: "2", SectionID: "379", SectionTitle: "Punishment for theft", Description: "Whoever commits theft shall be punished with imprisonment of either description for a term which may extend to three years, or with fine, or with both.", Act: "IPC"},
			{ID: "3", SectionID: "420", SectionTitle: "Cheating and dishonestly inducing delivery of property", Description: "Whoever cheats and thereby dishonestly induces the person deceived to deliver any property shall be punished with imprisonment which may extend to seven years.", Act: "IPC"},
			{ID: "4", SectionID: "154", SectionTitle: "Information in cognizable cases", Description: "Every information relating to the commission of a cognizable offence, if given orally to an officer in charge of a police station, shall be reduced to writing.", Act: "CrPC"},
		},
		docs: []model.Document{
			{ID: "1", ActName: "Indian Penal Code, 1860", Description: "Substantive criminal law of India"},
			{ID: "2", ActName: "Code of Criminal Procedure, 1973", Description: "Procedure for administration of criminal law"},
			{ID: "3", ActName: "Indian Evidence Act, 1872", Description: "Rules on admissibility of evidence"},
		},
		failures: make(map[string]int),
		requests: make(map[string]int),
	}
}

// SetAnswer fixes the raw inference payload returned for query
func (s *Server) SetAnswer(query string, payload string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers[query] = json.RawMessage(payload)
}

// FailNext makes the next request to path answer with status
func (s *Server) FailNext(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = status
}

// Requests returns how many requests reached path
func (s *Server) Requests(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

// Cases returns a copy of the stored cases
func (s *Server) Cases() []model.CaseRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.CaseRecord, len(s.cases))
	for i, c := range s.cases {
		out[i] = c.Clone()
	}
	return out
}

// HoldInference blocks inference requests until the returned func is called
// or the client goes away.
func (s *Server) HoldInference() (release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan struct{})
	s.hold = ch
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.hold == ch {
				s.hold = nil
			}
			s.mu.Unlock()
			close(ch)
		})
	}
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.track())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	r.POST("/encode/", s.handleInference)
	r.POST("/ai/", s.handleInference)
	r.POST("/case_save/", s.handleSave)
	r.GET("/case_list/", s.handleList)
	r.POST("/search/", s.handleSearch)
	r.GET("/database/", s.handleDatabase)
	r.GET("/pdfs/", s.handleDocuments)
	r.GET("/pdfs/:id/download/", s.handleDownload)

	return r
}

// track counts requests and applies injected failures
func (s *Server) track() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		s.mu.Lock()
		s.requests[path]++
		status, fail := s.failures[path]
		if fail {
			delete(s.failures, path)
		}
		s.mu.Unlock()

		if fail {
			c.AbortWithStatusJSON(status, gin.H{"error": http.StatusText(status)})
			return
		}
		c.Next()
	}
}

type queryBody struct {
	Query string `json:"query"`
}

func (s *Server) handleInference(c *gin.Context) {
	var body queryBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	hold := s.hold
	payload, fixed := s.answers[body.Query]
	s.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-c.Request.Context().Done():
			return
		}
	}

	if !fixed {
		payload = cannedAnswer(body.Query)
	}
	c.Data(http.StatusOK, "application/json", payload)
}

// cannedAnswer picks a payload shape from keywords in the query
func cannedAnswer(query string) json.RawMessage {
	q := strings.ToLower(query)
	switch {
	case strings.Contains(q, "murder") || strings.Contains(q, "killed"):
		return json.RawMessage(`{"acts": {"302": "Punishment for murder", "304": "Punishment for culpable homicide not amounting to murder"}}`)
	case strings.Contains(q, "stolen") || strings.Contains(q, "theft"):
		return json.RawMessage(`{"caseHeading": "Theft reported", "acts": {"379": "Punishment for theft", "411": "Dishonestly receiving stolen property"}}`)
	case strings.Contains(q, "cheat") || strings.Contains(q, "fraud"):
		return json.RawMessage(`{"sections": ["420", "415"]}`)
	default:
		return json.RawMessage(`"No applicable law found"`)
	}
}

func (s *Server) handleSave(c *gin.Context) {
	var rec model.CaseRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	rec.ID = model.CaseID(strconv.Itoa(s.nextID))
	s.nextID++
	s.cases = append(s.cases, rec.Clone())
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"message": "Case saved successfully", "id": rec.ID})
}

func (s *Server) handleList(c *gin.Context) {
	c.JSON(http.StatusOK, model.CaseList{Cases: s.Cases()})
}

func (s *Server) handleSearch(c *gin.Context) {
	var body model.ActSearch
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	q := strings.ToLower(body.Query)
	var out []model.Law
	for _, law := range s.laws {
		if !strings.EqualFold(law.Act, body.Act) {
			continue
		}
		if q == "" || strings.Contains(strings.ToLower(law.SectionTitle+" "+law.Description), q) || law.SectionID == body.Query {
			out = append(out, law)
		}
	}
	c.JSON(http.StatusOK, model.LawList{Data: out})
}

func (s *Server) handleDatabase(c *gin.Context) {
	c.JSON(http.StatusOK, model.LawList{Data: s.laws})
}

func (s *Server) handleDocuments(c *gin.Context) {
	c.JSON(http.StatusOK, s.docs)
}

func (s *Server) handleDownload(c *gin.Context) {
	id := model.DocumentID(c.Param("id"))
	for _, d := range s.docs {
		if d.ID == id {
			c.Data(http.StatusOK, "application/pdf", fakePDF(d))
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
}

func fakePDF(d model.Document) []byte {
	return []byte("%PDF-1.4\n% " + d.ActName + "\n%%EOF\n")
}
