package api

import (
	"net/http"

	"omerhsa-quotes/internal/common/errors"
	"omerhsa-quotes/internal/contact"
	"omerhsa-quotes/internal/content"
	"omerhsa-quotes/internal/models"
	"omerhsa-quotes/internal/quote"
	"omerhsa-quotes/internal/wizard"

	"github.com/gin-gonic/gin"
)

type sessionView struct {
	Session     *models.Session `json:"session"`
	GateEnabled bool            `json:"gateEnabled"`
	Allowed     bool            `json:"allowed"`
	Preloader   interface{}     `json:"preloader"`
}

func (s *Server) sessionView(sess *models.Session) sessionView {
	return sessionView{
		Session:     sess,
		GateEnabled: s.opts.Sessions.GateEnabled(),
		Allowed:     s.opts.Sessions.Allowed(sess),
		Preloader:   s.opts.Sessions.Preloader(sess),
	}
}

func (s *Server) getSession(c *gin.Context) {
	RespondSuccess(c, s.sessionView(currentSession(c)), "")
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, errors.ErrCodeInputParsingFailed, msgBadPayload)
		return
	}
	sess := currentSession(c)
	if err := s.opts.Sessions.Login(c.Request.Context(), sess, req.Email, req.Password); err != nil {
		HandleServiceError(c, s.logger, err, nil)
		return
	}
	RespondSuccess(c, s.sessionView(sess), "Bienvenido, "+sess.UserName)
}

func (s *Server) logout(c *gin.Context) {
	sess := currentSession(c)
	if err := s.opts.Sessions.Logout(c.Request.Context(), sess); err != nil {
		HandleServiceError(c, s.logger, err, nil)
		return
	}
	RespondSuccess(c, s.sessionView(sess), "")
}

func (s *Server) preloaderSeen(c *gin.Context) {
	sess := currentSession(c)
	if err := s.opts.Sessions.MarkPreloaderSeen(c.Request.Context(), sess); err != nil {
		HandleServiceError(c, s.logger, err, nil)
		return
	}
	RespondSuccess(c, s.sessionView(sess), "")
}

// quoteResult writes view, or the error with the view it left behind.
func (s *Server) quoteResult(c *gin.Context, view quote.View, err error) {
	if err != nil {
		var data interface{}
		if view.State.SessionID != "" {
			data = view
		}
		HandleServiceError(c, s.logger, err, data)
		return
	}
	RespondSuccess(c, view, "")
}

func (s *Server) startQuote(c *gin.Context) {
	view, err := s.opts.Quotes.Start(c.Request.Context(), currentSession(c).ID)
	s.quoteResult(c, view, err)
}

func (s *Server) getQuote(c *gin.Context) {
	view, err := s.opts.Quotes.Get(c.Request.Context(), currentSession(c).ID)
	s.quoteResult(c, view, err)
}

func (s *Server) abandonQuote(c *gin.Context) {
	if err := s.opts.Quotes.Abandon(c.Request.Context(), currentSession(c).ID); err != nil {
		HandleServiceError(c, s.logger, err, nil)
		return
	}
	RespondSuccess(c, nil, "")
}

type insuranceRequest struct {
	InsuranceType string `json:"insuranceType"`
}

func (s *Server) selectInsurance(c *gin.Context) {
	var req insuranceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, errors.ErrCodeInputParsingFailed, msgBadPayload)
		return
	}
	t, ok := models.ParseInsuranceType(req.InsuranceType)
	if !ok {
		t = models.InsuranceType(req.InsuranceType)
	}
	view, err := s.opts.Quotes.SelectInsurance(c.Request.Context(), currentSession(c).ID, t)
	s.quoteResult(c, view, err)
}

type fieldsRequest struct {
	Fields map[string]string `json:"fields" binding:"required"`
}

func (s *Server) setFields(c *gin.Context) {
	var req fieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, errors.ErrCodeInputParsingFailed, msgBadPayload)
		return
	}
	fields := make(map[wizard.Field]string, len(req.Fields))
	for k, v := range req.Fields {
		fields[wizard.Field(k)] = v
	}
	view, err := s.opts.Quotes.SetFields(c.Request.Context(), currentSession(c).ID, fields)
	s.quoteResult(c, view, err)
}

func (s *Server) nextStep(c *gin.Context) {
	view, err := s.opts.Quotes.Next(c.Request.Context(), currentSession(c).ID)
	s.quoteResult(c, view, err)
}

func (s *Server) backStep(c *gin.Context) {
	view, err := s.opts.Quotes.Back(c.Request.Context(), currentSession(c).ID)
	s.quoteResult(c, view, err)
}

func (s *Server) submitQuote(c *gin.Context) {
	view, err := s.opts.Quotes.Submit(c.Request.Context(), currentSession(c).ID)
	s.quoteResult(c, view, err)
}

var contentKinds = map[string]models.ContentType{
	"blog":     models.ContentBlog,
	"academic": models.ContentAcademic,
	"all":      "",
}

func (s *Server) listContent(c *gin.Context) {
	kind, ok := contentKinds[c.Param("kind")]
	if !ok {
		RespondError(c, http.StatusNotFound, "", "Sección no encontrada.")
		return
	}
	var q content.Query
	if err := c.ShouldBindQuery(&q); err != nil {
		RespondError(c, http.StatusBadRequest, errors.ErrCodeInputParsingFailed, msgBadPayload)
		return
	}
	RespondSuccess(c, s.opts.Content.List(c.Request.Context(), kind, q), "")
}

func (s *Server) submitContact(c *gin.Context) {
	var in contact.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, http.StatusBadRequest, errors.ErrCodeInputParsingFailed, msgBadPayload)
		return
	}
	res, err := s.opts.Contact.Submit(c.Request.Context(), in)
	if err != nil {
		HandleServiceError(c, s.logger, err, nil)
		return
	}
	RespondSuccess(c, res, res.Title)
}

func (s *Server) siteInfo(c *gin.Context) {
	RespondSuccess(c, gin.H{
		"info":      s.opts.Site.Info(),
		"nav":       s.opts.Site.Nav(false),
		"mobileNav": s.opts.Site.Nav(true),
	}, "")
}

func (s *Server) insurers(c *gin.Context) {
	RespondSuccess(c, s.opts.Site.Insurers(), "")
}

func (s *Server) faq(c *gin.Context) {
	RespondSuccess(c, s.opts.Site.FAQ(), "")
}

func (s *Server) insuranceOptions(c *gin.Context) {
	RespondSuccess(c, s.opts.Site.InsuranceOptions(), "")
}
