package services

import (
	"errors"
	"strings"

	"chatsaas_backend/internal/email"
	"chatsaas_backend/internal/logger"
	"chatsaas_backend/internal/models"
	"chatsaas_backend/internal/repositories"
	"chatsaas_backend/internal/services/dto"
	"chatsaas_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// Mailer - отправка писем по шаблону; используется другими сервисами
type Mailer interface {
	// Notify рендерит шаблон и кладет письмо в очередь. Ошибки только логируются.
	Notify(db *gorm.DB, templateName, to string, data email.TemplateData) bool
}

type EmailTemplateService interface {
	Mailer

	List(db *gorm.DB) ([]models.EmailTemplate, error)
	Get(db *gorm.DB, id string) (*models.EmailTemplate, error)
	Create(db *gorm.DB, req *dto.CreateEmailTemplateRequest) (*models.EmailTemplate, error)
	Update(db *gorm.DB, id string, req *dto.UpdateEmailTemplateRequest) (*models.EmailTemplate, error)
	Delete(db *gorm.DB, id string) error
	Preview(db *gorm.DB, id string, vars map[string]string) (*dto.PreviewTemplateResponse, error)
	SendTest(db *gorm.DB, id string, req *dto.SendTestEmailRequest) (*dto.SendTestEmailResponse, error)
}

// MailDispatcher - очередь писем (email.Dispatcher)
type MailDispatcher interface {
	Enqueue(msg *email.Email) bool
	SendNow(msg *email.Email) error
}

type EmailTemplateServiceImpl struct {
	templateRepo repositories.EmailTemplateRepository
	dispatcher   MailDispatcher
	fromEmail    string
	defaults     email.TemplateData
}

func NewEmailTemplateService(
	templateRepo repositories.EmailTemplateRepository,
	dispatcher MailDispatcher,
	fromEmail string,
	defaults email.TemplateData,
) EmailTemplateService {
	return &EmailTemplateServiceImpl{
		templateRepo: templateRepo,
		dispatcher:   dispatcher,
		fromEmail:    fromEmail,
		defaults:     defaults,
	}
}

// resolve: активный шаблон из БД, иначе встроенный
func (s *EmailTemplateServiceImpl) resolve(db *gorm.DB, name string) (email.Template, error) {
	tpl, err := s.templateRepo.FindActiveByName(db, name)
	if err == nil {
		return email.Template{Name: tpl.Name, Subject: tpl.Subject, Body: tpl.Body}, nil
	}
	if !errors.Is(err, repositories.ErrTemplateNotFound) {
		return email.Template{}, err
	}
	if builtin, ok := email.Builtin(name); ok {
		return builtin, nil
	}
	return email.Template{}, repositories.ErrTemplateNotFound
}

func (s *EmailTemplateServiceImpl) merge(data map[string]string) email.TemplateData {
	out := make(email.TemplateData, len(s.defaults)+len(data))
	for k, v := range s.defaults {
		out[k] = v
	}
	for k, v := range data {
		out[k] = v
	}
	return out
}

func (s *EmailTemplateServiceImpl) Notify(db *gorm.DB, templateName, to string, data email.TemplateData) bool {
	tpl, err := s.resolve(db, templateName)
	if err != nil {
		logger.Error("Failed to resolve email template", "template", templateName, "error", err.Error())
		return false
	}

	subject, body := tpl.Render(s.merge(data))
	return s.dispatcher.Enqueue(&email.Email{
		From:     s.fromEmail,
		To:       []string{to},
		Subject:  subject,
		HTMLBody: body,
		Tag:      templateName,
	})
}

func (s *EmailTemplateServiceImpl) List(db *gorm.DB) ([]models.EmailTemplate, error) {
	templates, err := s.templateRepo.FindAll(db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return templates, nil
}

func (s *EmailTemplateServiceImpl) Get(db *gorm.DB, id string) (*models.EmailTemplate, error) {
	tpl, err := s.templateRepo.FindByID(db, id)
	if err != nil {
		return nil, handleTemplateError(err)
	}
	return tpl, nil
}

func (s *EmailTemplateServiceImpl) Create(db *gorm.DB, req *dto.CreateEmailTemplateRequest) (*models.EmailTemplate, error) {
	vars := req.Variables
	if len(vars) == 0 {
		vars = email.Placeholders(req.Subject + " " + req.Body)
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	tpl := &models.EmailTemplate{
		Name:      strings.TrimSpace(req.Name),
		Subject:   req.Subject,
		Body:      req.Body,
		Variables: vars,
		IsActive:  isActive,
	}
	if err := s.templateRepo.Create(db, tpl); err != nil {
		return nil, handleTemplateError(err)
	}
	return tpl, nil
}

func (s *EmailTemplateServiceImpl) Update(db *gorm.DB, id string, req *dto.UpdateEmailTemplateRequest) (*models.EmailTemplate, error) {
	var result *models.EmailTemplate
	err := db.Transaction(func(tx *gorm.DB) error {
		current, err := s.templateRepo.FindByID(tx, id)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if req.Name != nil {
			updates["name"] = strings.TrimSpace(*req.Name)
		}
		if req.Subject != nil {
			updates["subject"] = *req.Subject
			current.Subject = *req.Subject
		}
		if req.Body != nil {
			updates["body"] = *req.Body
			current.Body = *req.Body
		}
		if req.IsActive != nil {
			updates["is_active"] = *req.IsActive
		}
		if req.Variables != nil {
			current.Variables = req.Variables
			updates["variables"] = current.Variables
		} else if req.Subject != nil || req.Body != nil {
			current.Variables = email.Placeholders(current.Subject + " " + current.Body)
			updates["variables"] = current.Variables
		}

		if len(updates) > 0 {
			if err := s.templateRepo.Update(tx, id, updates); err != nil {
				return err
			}
		}
		result, err = s.templateRepo.FindByID(tx, id)
		return err
	})
	if err != nil {
		return nil, handleTemplateError(err)
	}
	return result, nil
}

func (s *EmailTemplateServiceImpl) Delete(db *gorm.DB, id string) error {
	if err := s.templateRepo.Delete(db, id); err != nil {
		return handleTemplateError(err)
	}
	return nil
}

func (s *EmailTemplateServiceImpl) Preview(db *gorm.DB, id string, vars map[string]string) (*dto.PreviewTemplateResponse, error) {
	tpl, err := s.templateRepo.FindByID(db, id)
	if err != nil {
		return nil, handleTemplateError(err)
	}

	data := email.SampleData(email.Placeholders(tpl.Subject + " " + tpl.Body))
	for k, v := range s.merge(vars) {
		data[k] = v
	}
	subject, body := email.Template{Subject: tpl.Subject, Body: tpl.Body}.Render(data)
	return &dto.PreviewTemplateResponse{Subject: subject, Body: body}, nil
}

// SendTest отправляет письмо синхронно; сбой SMTP - это success=false, а не ошибка запроса
func (s *EmailTemplateServiceImpl) SendTest(db *gorm.DB, id string, req *dto.SendTestEmailRequest) (*dto.SendTestEmailResponse, error) {
	preview, err := s.Preview(db, id, req.Variables)
	if err != nil {
		return nil, err
	}

	err = s.dispatcher.SendNow(&email.Email{
		From:     s.fromEmail,
		To:       []string{req.To},
		Subject:  "[TEST] " + preview.Subject,
		HTMLBody: preview.Body,
		Tag:      "send_test",
	})
	if err != nil {
		logger.Warn("Test email failed", "template_id", id, "to", req.To, "error", err.Error())
		return &dto.SendTestEmailResponse{Success: false, Error: "Failed to send email"}, nil
	}
	return &dto.SendTestEmailResponse{Success: true}, nil
}

func handleTemplateError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrTemplateNotFound):
		return apperrors.ErrTemplateNotFound
	case errors.Is(err, repositories.ErrTemplateExists):
		return apperrors.ErrDuplicate(err, "email", "Template with this name already exists")
	default:
		return apperrors.InternalError(err)
	}
}
