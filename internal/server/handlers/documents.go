package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"slices"
	"time"

	"github.com/AlexTLDR/lesezirkel/internal/convert"
	"github.com/AlexTLDR/lesezirkel/internal/database"
	"github.com/AlexTLDR/lesezirkel/internal/forms"
	"github.com/AlexTLDR/lesezirkel/internal/storage"
	"github.com/AlexTLDR/lesezirkel/internal/utils"
	"github.com/AlexTLDR/lesezirkel/templates"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// HandleDocuments lists public documents, optionally of one category.
func HandleDocuments(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category := r.URL.Query().Get("category")
		if category == "general" || !isChoice(database.DocumentCategories, category) {
			category = ""
		}

		page, err := s.GetDB().PublicDocuments(r.Context(), category, database.ParsePage(r.URL.Query().Get("page")))
		if err != nil {
			serverError(s, w, r, err)
			return
		}
		render(w, r, http.StatusOK, templates.Documents(templates.DocumentsData{
			Page:       newPage(s, w, r, translate(r, "nav.documents")),
			Documents:  page,
			Category:   category,
			Categories: database.DocumentCategories,
		}))
	}
}

func isChoice(choices []database.Choice, value string) bool {
	for _, c := range choices {
		if c.Value == value {
			return true
		}
	}
	return false
}

func HandleDocumentDetail(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(s, w, r)
		if !ok {
			return
		}
		doc, err := s.GetDB().PublicDocument(r.Context(), id)
		if err != nil {
			serverError(s, w, r, err)
			return
		}
		relatedDocs, err := s.GetDB().RelatedDocuments(r.Context(), doc, related)
		if err != nil {
			serverError(s, w, r, err)
			return
		}
		render(w, r, http.StatusOK, templates.DocumentDetail(templates.DocumentData{
			Page:     newPage(s, w, r, doc.Title),
			Document: *doc,
			Related:  relatedDocs,
		}))
	}
}

func readObject(s Server, r *http.Request, key string) ([]byte, error) {
	rc, err := s.GetStorage().Open(r.Context(), key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// HandleDocumentDownload serves a document converted to PDF. When the
// conversion fails the original file is sent instead; when the file cannot
// be read the answer is 404.
func HandleDocumentDownload(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(s, w, r)
		if !ok {
			return
		}
		ctx := r.Context()
		log := zerolog.Ctx(ctx).With().Uint("document_id", id).Logger()

		doc, err := s.GetDB().PublicDocument(ctx, id)
		if err != nil {
			serverError(s, w, r, err)
			return
		}

		data, err := readObject(s, r, doc.File)
		if err != nil {
			log.Error().Err(err).Msg("file access failed for document")
			renderError(s, w, r, http.StatusNotFound)
			return
		}

		original := doc.FileName
		if original == "" {
			original = utils.BaseName(doc.File)
		}

		body, contentType, filename := data, "application/octet-stream", original
		if pdf, err := convert.ToPDF(original, data); err != nil {
			log.Warn().Err(err).Msg("PDF conversion failed, serving original file")
		} else {
			body, contentType, filename = pdf, "application/pdf", doc.Title+".pdf"
		}

		if err := s.GetDB().IncrementDownloadCount(ctx, doc.ID); err != nil {
			log.Error().Err(err).Msg("failed to count download")
		}

		attachment(w, contentType, filename)
		w.Header().Set("Content-Length", fmt.Sprint(len(body)))
		_, _ = w.Write(body)
	}
}

// HandleCertificates shows the certificate search form.
func HandleCertificates(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, http.StatusOK, templates.Certificates(templates.CertificatesData{
			Page: newPage(s, w, r, translate(r, "nav.certificates")),
		}))
	}
}

// HandleCertificateSearch looks a certificate up by name and participant
// number. A match is remembered in the session, which unlocks its
// download.
func HandleCertificateSearch(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		rerender := func(key string, errs forms.Errors) {
			AddFlash(s, w, r, flashError, translate(r, key))
			render(w, r, http.StatusOK, templates.Certificates(templates.CertificatesData{
				Page:   newPage(s, w, r, translate(r, "nav.certificates")),
				Form:   formValues(r),
				Errors: errs,
			}))
		}

		var form forms.CertificateSearch
		if errs := s.GetForms().Decode(&form, r.PostForm); errs != nil {
			rerender("certificate.incomplete", errs)
			return
		}

		cert, err := s.GetDB().FindCertificate(r.Context(), form.FirstName, form.LastName, form.ParticipantNumber)
		if errors.Is(err, database.ErrNotFound) {
			rerender("certificate.not_found", nil)
			return
		}
		if err != nil {
			serverError(s, w, r, err)
			return
		}

		session := Session(s, r)
		ids, _ := session.Values[keyCertificates].([]uint)
		if !slices.Contains(ids, cert.ID) {
			session.Values[keyCertificates] = append(ids, cert.ID)
			saveSession(session, w, r)
		}
		http.Redirect(w, r, fmt.Sprintf("/zertifikat/%d/download", cert.ID), http.StatusSeeOther)
	}
}

func certificateAllowed(s Server, r *http.Request, id uint) bool {
	if IsStaff(r) {
		return true
	}
	ids, _ := Session(s, r).Values[keyCertificates].([]uint)
	return slices.Contains(ids, id)
}

// HandleCertificateDownload sends a certificate PDF to staff or to whoever
// found it through the search in this session.
func HandleCertificateDownload(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(s, w, r)
		if !ok {
			return
		}
		if !certificateAllowed(s, r, id) {
			http.Redirect(w, r, "/zertifikate", http.StatusSeeOther)
			return
		}

		cert, err := database.Get[database.Certificate](r.Context(), s.GetDB(), id)
		if err != nil {
			serverError(s, w, r, err)
			return
		}
		data, err := readObject(s, r, cert.File)
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Uint("certificate_id", id).Msg("certificate file not found")
			renderError(s, w, r, http.StatusNotFound)
			return
		}

		attachment(w, "application/pdf", cert.DownloadName())
		w.Header().Set("Content-Length", fmt.Sprint(len(data)))
		_, _ = w.Write(data)
	}
}

// HandleMedia serves uploaded images and audio from local storage.
// Documents and certificates are only reachable through their download
// handlers.
func HandleMedia(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "*")
		if !storage.IsPublicKey(key) {
			renderError(s, w, r, http.StatusNotFound)
			return
		}

		rc, err := s.GetStorage().Open(r.Context(), key)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				zerolog.Ctx(r.Context()).Error().Err(err).Str("key", key).Msg("failed to open media file")
			}
			renderError(s, w, r, http.StatusNotFound)
			return
		}
		defer rc.Close()

		w.Header().Set("Cache-Control", "public, max-age=86400")
		if rs, ok := rc.(io.ReadSeeker); ok {
			http.ServeContent(w, r, path.Base(key), time.Time{}, rs)
			return
		}
		if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
			w.Header().Set("Content-Type", ct)
		}
		_, _ = io.Copy(w, rc)
	}
}
