package controllers

import (
	"context"
	"errors"
	"io"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"diwt-portal/backend/config"
	"diwt-portal/backend/middleware"
	"diwt-portal/backend/models"
	"diwt-portal/backend/utils"
)

// Размер страницы в консоли администратора
const certsPerPage = 15

// AttachmentStore — всё, что контроллеру нужно от объектного хранилища
type AttachmentStore interface {
	UploadCertificateFile(ctx context.Context, certID, fileName string, reader io.Reader, size int64) (string, error)
	DeleteCertificateFiles(ctx context.Context, certID string) error
}

type CertificateController struct {
	DB    *gorm.DB
	Cfg   *config.Config
	Store AttachmentStore
}

func NewCertificateController(db *gorm.DB, cfg *config.Config, store AttachmentStore) *CertificateController {
	return &CertificateController{DB: db, Cfg: cfg, Store: store}
}

// Create godoc
// @Summary Request a certificate
// @Description Files a STUDY or EDBO certificate request; EDBO may carry a PDF attachment
// @Tags certificates
// @Accept mpfd
// @Produce json
// @Param type formData string true "Certificate type (STUDY|EDBO)"
// @Param file formData file false "PDF attachment (EDBO only)"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /certificates [post]
func (cc *CertificateController) Create(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	certType := c.FormValue("type")
	if !models.ValidCertificateType(certType) {
		return utils.BadRequest(c, "Unknown certificate type")
	}

	cert := models.CertificateRequest{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		UserPib:   user.Pib,
		UserPhone: user.Phone,
		Type:      certType,
		Status:    models.CertificateStatusNew,
		CreatedAt: time.Now().UnixMilli(),
	}

	// Вложение допустимо только для ЄДЕБО
	if certType == models.CertificateTypeEdbo {
		if file, err := c.FormFile("file"); err == nil && file != nil {
			cert.FileName = file.Filename
			if cc.Store != nil {
				src, err := file.Open()
				if err != nil {
					return utils.BadRequest(c, "Cannot read attachment")
				}
				defer src.Close()

				url, err := cc.Store.UploadCertificateFile(c.Context(), cert.ID, file.Filename, src, file.Size)
				if err != nil {
					log.Printf("certificate attachment upload failed: %v", err)
					return utils.Error(c, fiber.StatusInternalServerError, "Could not store attachment")
				}
				cert.FileURL = url
			}
		}
	}

	if err := cc.DB.Create(&cert).Error; err != nil {
		return utils.StoreUnavailable(c)
	}

	return utils.Created(c, cert)
}

// ListOwn godoc
// @Summary List own certificate requests
// @Tags certificates
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /certificates [get]
func (cc *CertificateController) ListOwn(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var certs []models.CertificateRequest
	if err := cc.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Find(&certs).Error; err != nil {
		return utils.StoreUnavailable(c)
	}

	return utils.Success(c, fiber.StatusOK, certs)
}

// ListAll godoc
// @Summary List all certificate requests
// @Description Admin view, newest first, paginated
// @Tags admin
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(15)
// @Success 200 {object} utils.PaginatedResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/certificates [get]
func (cc *CertificateController) ListAll(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", strconv.Itoa(certsPerPage)))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = certsPerPage
	}
	offset := (page - 1) * pageSize

	var total int64
	if err := cc.DB.Model(&models.CertificateRequest{}).Count(&total).Error; err != nil {
		return utils.StoreUnavailable(c)
	}

	var certs []models.CertificateRequest
	if err := cc.DB.Order("created_at DESC").
		Offset(offset).Limit(pageSize).
		Find(&certs).Error; err != nil {
		return utils.StoreUnavailable(c)
	}

	return utils.Paginate(c, certs, total, page, pageSize)
}

type SetStatusInput struct {
	Status string `json:"status"`
}

// SetStatus godoc
// @Summary Set certificate request status
// @Description Overwrites the status column of one record
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Certificate id"
// @Param input body SetStatusInput true "New status (NEW|DONE)"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/certificates/{id}/status [put]
func (cc *CertificateController) SetStatus(c *fiber.Ctx) error {
	var input SetStatusInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if !models.ValidCertificateStatus(input.Status) {
		return utils.BadRequest(c, "Unknown status")
	}

	// Точечное обновление одной колонки вместо перезаписи коллекции
	res := cc.DB.Model(&models.CertificateRequest{}).
		Where("id = ?", c.Params("id")).
		Update("status", input.Status)
	if res.Error != nil {
		return utils.StoreUnavailable(c)
	}
	if res.RowsAffected == 0 {
		return utils.NotFound(c, "Certificate not found")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"status": input.Status})
}

// Delete godoc
// @Summary Delete one certificate request
// @Tags admin
// @Produce json
// @Param id path string true "Certificate id"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/certificates/{id} [delete]
func (cc *CertificateController) Delete(c *fiber.Ctx) error {
	id := c.Params("id")

	var cert models.CertificateRequest
	if err := cc.DB.First(&cert, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Certificate not found")
		}
		return utils.StoreUnavailable(c)
	}

	if err := cc.DB.Delete(&cert).Error; err != nil {
		return utils.StoreUnavailable(c)
	}

	if cc.Store != nil && cert.FileURL != "" {
		if err := cc.Store.DeleteCertificateFiles(c.Context(), cert.ID); err != nil {
			log.Printf("certificate attachment cleanup failed: %v", err)
		}
	}

	return utils.NoContent(c)
}

// DeleteAll godoc
// @Summary Delete all certificate requests
// @Tags admin
// @Produce json
// @Success 204
// @Failure 503 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/certificates [delete]
func (cc *CertificateController) DeleteAll(c *fiber.Ctx) error {
	// Сначала подчищаем вложения, иначе они осиротеют в хранилище
	if cc.Store != nil {
		var withFiles []models.CertificateRequest
		if err := cc.DB.Where("file_url <> ''").Find(&withFiles).Error; err != nil {
			return utils.StoreUnavailable(c)
		}
		for _, cert := range withFiles {
			if err := cc.Store.DeleteCertificateFiles(c.Context(), cert.ID); err != nil {
				log.Printf("certificate attachment cleanup failed: %v", err)
			}
		}
	}

	if err := cc.DB.Where("1 = 1").Delete(&models.CertificateRequest{}).Error; err != nil {
		return utils.StoreUnavailable(c)
	}
	return utils.NoContent(c)
}
