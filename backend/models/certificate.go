package models

const (
	CertificateTypeStudy = "STUDY"
	CertificateTypeEdbo  = "EDBO"

	CertificateStatusNew  = "NEW"
	CertificateStatusDone = "DONE"
)

// CertificateRequest — заявка на справку. ПІБ и телефон фиксируются
// на момент создания и не пересинхронизируются при изменении профиля.
type CertificateRequest struct {
	ID        string `gorm:"primaryKey" json:"id"`
	UserID    string `gorm:"column:user_id;index;not null" json:"userId"`
	UserPib   string `gorm:"column:user_pib" json:"userPib"`
	UserPhone string `gorm:"column:user_phone" json:"userPhone"`
	Type      string `gorm:"not null" json:"type"`
	Status    string `gorm:"not null;default:NEW" json:"status"`
	CreatedAt int64  `gorm:"column:created_at" json:"createdAt"` // unix milliseconds
	FileName  string `gorm:"column:file_name" json:"fileName,omitempty"`
	FileURL   string `gorm:"column:file_url" json:"fileUrl,omitempty"`
}

func (CertificateRequest) TableName() string {
	return "certificates"
}

func ValidCertificateType(t string) bool {
	return t == CertificateTypeStudy || t == CertificateTypeEdbo
}

func ValidCertificateStatus(s string) bool {
	return s == CertificateStatusNew || s == CertificateStatusDone
}
