package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diwt-portal/backend/models"
)

// createCertificate отправляет multipart-заявку; fileName == "" — без вложения.
func createCertificate(t *testing.T, token, certType, fileName string) (*http.Response, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("type", certType))
	if fileName != "" {
		part, err := writer.CreateFormFile("file", fileName)
		require.NoError(t, err)
		part.Write([]byte("%PDF-1.4 stub"))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/certificates", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	return resp, result
}

func TestCreateCertificateTypes(t *testing.T) {
	_, token := registerAndLogin(t, "certtypes", "+380509000001")

	// STUDY никогда не несет файла, даже если клиент его прислал
	resp, result := createCertificate(t, token, models.CertificateTypeStudy, "sneaky.pdf")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	study := result["data"].(map[string]interface{})
	assert.Equal(t, "STUDY", study["type"])
	assert.Equal(t, "NEW", study["status"])
	assert.Nil(t, study["fileName"])

	// EDBO с вложением фиксирует имя файла
	resp, result = createCertificate(t, token, models.CertificateTypeEdbo, "dovidka.pdf")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	edbo := result["data"].(map[string]interface{})
	assert.Equal(t, "EDBO", edbo["type"])
	assert.Equal(t, "dovidka.pdf", edbo["fileName"])

	resp, _ = createCertificate(t, token, "DIPLOMA", "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCertificateSnapshotsProfile(t *testing.T) {
	_, token := registerAndLogin(t, "snapshot", "+380509000002")

	resp, result := createCertificate(t, token, models.CertificateTypeStudy, "")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	certID := result["data"].(map[string]interface{})["id"].(string)
	assert.Equal(t, "+380509000002", result["data"].(map[string]interface{})["userPhone"])

	// Правка профиля не трогает снимок в заявке
	resp, _ = doJSON(t, "PUT", "/api/user/profile", token, map[string]interface{}{
		"pib":   "Нове Імʼя",
		"login": "snapshot",
		"email": "snapshot@student.diwt.edu.ua",
		"phone": "+380509999999",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var cert models.CertificateRequest
	require.NoError(t, db.First(&cert, "id = ?", certID).Error)
	assert.Equal(t, "+380509000002", cert.UserPhone)
	assert.Equal(t, "Тестовий Студент snapshot", cert.UserPib)
}

func TestSetStatusTouchesOnlyThatRecord(t *testing.T) {
	_, token := registerAndLogin(t, "statuser", "+380509000003")

	_, first := createCertificate(t, token, models.CertificateTypeStudy, "")
	_, second := createCertificate(t, token, models.CertificateTypeStudy, "")
	firstID := first["data"].(map[string]interface{})["id"].(string)
	secondID := second["data"].(map[string]interface{})["id"].(string)

	var before models.CertificateRequest
	require.NoError(t, db.First(&before, "id = ?", firstID).Error)

	admin := adminToken(t)
	resp, _ := doJSON(t, "PUT", "/api/admin/certificates/"+firstID+"/status", admin,
		map[string]interface{}{"status": "DONE"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var after models.CertificateRequest
	require.NoError(t, db.First(&after, "id = ?", firstID).Error)
	assert.Equal(t, models.CertificateStatusDone, after.Status)

	// Кроме статуса ничего не изменилось
	after.Status = before.Status
	assert.Equal(t, before, after)

	// Соседняя запись не тронута
	var other models.CertificateRequest
	require.NoError(t, db.First(&other, "id = ?", secondID).Error)
	assert.Equal(t, models.CertificateStatusNew, other.Status)

	resp, _ = doJSON(t, "PUT", "/api/admin/certificates/"+firstID+"/status", admin,
		map[string]interface{}{"status": "LOST"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, "PUT", "/api/admin/certificates/missing-id/status", admin,
		map[string]interface{}{"status": "DONE"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCertificateAdminQueueScenario(t *testing.T) {
	// Студент ivan1 регистрируется, входит и заказывает справку
	_, token := registerAndLogin(t, "ivan1", "+380501234567")

	resp, result := createCertificate(t, token, models.CertificateTypeStudy, "")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	certID := result["data"].(map[string]interface{})["id"].(string)

	// Консоль администратора видит ровно одну NEW-заявку от ivan1
	admin := adminToken(t)
	resp, result = doJSON(t, "GET", "/api/admin/certificates?page=1&page_size=100", admin, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var ivanNew []map[string]interface{}
	for _, raw := range result["data"].([]interface{}) {
		cert := raw.(map[string]interface{})
		if cert["userPib"] == "Тестовий Студент ivan1" && cert["status"] == "NEW" {
			ivanNew = append(ivanNew, cert)
		}
	}
	require.Len(t, ivanNew, 1)
	assert.Equal(t, certID, ivanNew[0]["id"])

	// Администратор закрывает заявку
	resp, _ = doJSON(t, "PUT", "/api/admin/certificates/"+certID+"/status", admin,
		map[string]interface{}{"status": "DONE"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Студент при следующем запросе видит DONE
	resp, result = doJSON(t, "GET", "/api/certificates", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	own := result["data"].([]interface{})
	require.Len(t, own, 1)
	assert.Equal(t, "DONE", own[0].(map[string]interface{})["status"])
}

func TestDeleteCertificates(t *testing.T) {
	_, token := registerAndLogin(t, "deleter", "+380509000004")

	_, created := createCertificate(t, token, models.CertificateTypeStudy, "")
	certID := created["data"].(map[string]interface{})["id"].(string)

	admin := adminToken(t)
	resp, _ := doJSON(t, "DELETE", "/api/admin/certificates/"+certID, admin, nil)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, "DELETE", "/api/admin/certificates/"+certID, admin, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	createCertificate(t, token, models.CertificateTypeStudy, "")
	createCertificate(t, token, models.CertificateTypeEdbo, "")

	resp, _ = doJSON(t, "DELETE", "/api/admin/certificates", admin, nil)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	var left int64
	require.NoError(t, db.Model(&models.CertificateRequest{}).Count(&left).Error)
	assert.Zero(t, left)
}

// recordingStore подменяет объектное хранилище и запоминает, чьи
// вложения были загружены и удалены.
type recordingStore struct {
	mu       sync.Mutex
	uploaded []string
	cleaned  []string
}

func (s *recordingStore) UploadCertificateFile(ctx context.Context, certID, fileName string, reader io.Reader, size int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploaded = append(s.uploaded, certID)
	return "https://files.test/edbo/" + certID + "/" + fileName, nil
}

func (s *recordingStore) DeleteCertificateFiles(ctx context.Context, certID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleaned = append(s.cleaned, certID)
	return nil
}

func TestDeleteAllCleansAttachments(t *testing.T) {
	_, token := registerAndLogin(t, "bulkdel", "+380509000005")
	admin := adminToken(t)

	store := &recordingStore{}
	fileApp := fiber.New()
	SetupRoutes(fileApp, db, cfg, store, nil)

	upload := func(fileName string) string {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		require.NoError(t, writer.WriteField("type", models.CertificateTypeEdbo))
		part, err := writer.CreateFormFile("file", fileName)
		require.NoError(t, err)
		part.Write([]byte("%PDF-1.4 stub"))
		require.NoError(t, writer.Close())

		req := httptest.NewRequest("POST", "/api/certificates", &buf)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		req.Header.Set("Authorization", token)
		resp, err := fileApp.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)

		var result map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&result)
		return result["data"].(map[string]interface{})["id"].(string)
	}

	first := upload("one.pdf")
	second := upload("two.pdf")
	require.ElementsMatch(t, []string{first, second}, store.uploaded)

	// Массовое удаление подчищает вложения каждой заявки, как и одиночное
	resp, _ := doJSONOn(t, fileApp, "DELETE", "/api/admin/certificates", admin, nil)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	assert.ElementsMatch(t, []string{first, second}, store.cleaned)

	var left int64
	require.NoError(t, db.Model(&models.CertificateRequest{}).Count(&left).Error)
	assert.Zero(t, left)
}
