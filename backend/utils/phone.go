package utils

import "regexp"

// Телефон принимается только в формате +380XXXXXXXXX.
var phoneRe = regexp.MustCompile(`^\+380\d{9}$`)

func ValidPhone(phone string) bool {
	return phoneRe.MatchString(phone)
}
