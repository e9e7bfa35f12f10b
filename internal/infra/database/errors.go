package database

import "fmt"

// Custom errors
var ErrPartnerNotFound = fmt.Errorf("partner not found")
var ErrRecordNotFound = fmt.Errorf("record not found")
var ErrMessageNotFound = fmt.Errorf("message not found")
var ErrWhatsAppMessageNotFound = fmt.Errorf("whatsapp message not found")
var ErrTemplateNotFound = fmt.Errorf("whatsapp template not found")
var ErrActionNotFound = fmt.Errorf("server action not found")
var ErrNotificationNotFound = fmt.Errorf("notification not found")
