package app

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/sirupsen/logrus"

	"whatsapp_gateway/internal/domain/store"
	"whatsapp_gateway/internal/domain/thread"
	"whatsapp_gateway/internal/domain/whatsapp"
)

var ErrTemplateModelMismatch = fmt.Errorf("template does not apply to this model")

// TemplateService renders and maintains WhatsApp templates.
type TemplateService struct {
	logger *logrus.Entry
}

func NewTemplateService(logger *logrus.Entry) *TemplateService {
	return &TemplateService{logger: logger.WithField("component", "template_service")}
}

type templateData struct {
	ID     int64
	Model  string
	Name   string
	Record map[string]string
}

// Render executes the template body against rec. Besides the data fields,
// the template can call {{field "name"}} for fields the record does not list.
func (s *TemplateService) Render(tpl *whatsapp.Template, rec thread.Record) (string, error) {
	if tpl.Model != "" && tpl.Model != rec.Model() {
		return "", fmt.Errorf("template %d (%s) on %s: %w", tpl.ID, tpl.Model, rec.Model(), ErrTemplateModelMismatch)
	}

	t, err := template.New(fmt.Sprintf("whatsapp_template_%d", tpl.ID)).
		Option("missingkey=zero").
		Funcs(template.FuncMap{
			"field": func(name string) string {
				v, _ := rec.Field(name)
				return v
			},
		}).
		Parse(tpl.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %d: %w", tpl.ID, err)
	}

	data := templateData{ID: rec.RecordID(), Model: rec.Model(), Record: make(map[string]string)}
	data.Name, _ = rec.Field("name")
	if fl, ok := rec.(thread.FieldLister); ok {
		for _, name := range fl.FieldNames() {
			data.Record[name], _ = rec.Field(name)
		}
	}

	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render template %d on %s/%d: %w", tpl.ID, rec.Model(), rec.RecordID(), err)
	}
	return b.String(), nil
}

// Reset restores the default body of the given templates.
func (s *TemplateService) Reset(ctx context.Context, st store.Store, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := st.Templates().Reset(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to reset templates: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"requested": len(ids), "reset": n}).Info("WhatsApp templates reset")
	return n, nil
}
