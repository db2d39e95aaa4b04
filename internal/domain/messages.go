package domain

import "strings"

// MessageKey identifies a user-facing message.
type MessageKey string

const (
	MsgMissingImages     MessageKey = "missing_images"
	MsgPartialFailure    MessageKey = "partial_failure"
	MsgInvalidImage      MessageKey = "invalid_image"
	MsgBatchNotFound     MessageKey = "batch_not_found"
	MsgImageNotAvailable MessageKey = "image_not_available"
	MsgInvalidTheme      MessageKey = "invalid_theme"
	MsgInternal          MessageKey = "internal"
)

var messages = map[MessageKey]map[string]string{
	MsgMissingImages: {
		"id": "Harap unggah foto model dan foto produk terlebih dahulu.",
		"en": "Please upload both the model photo and the product photo first.",
	},
	MsgPartialFailure: {
		"id": "Beberapa gambar gagal dibuat. Silakan coba lagi.",
		"en": "Some images failed to generate. Please try again.",
	},
	MsgInvalidImage: {
		"id": "Foto harus berupa gambar PNG, JPEG atau WEBP dan tidak lebih dari batas ukuran.",
		"en": "Photos must be PNG, JPEG or WEBP images within the size limit.",
	},
	MsgBatchNotFound: {
		"id": "Batch tidak ditemukan.",
		"en": "Batch not found.",
	},
	MsgImageNotAvailable: {
		"id": "Gambar belum tersedia.",
		"en": "Image is not available.",
	},
	MsgInvalidTheme: {
		"id": "Tema harus light atau dark.",
		"en": "Theme must be light or dark.",
	},
	MsgInternal: {
		"id": "Terjadi kesalahan. Silakan coba lagi.",
		"en": "Something went wrong. Please try again.",
	},
}

// Message returns the text for key in locale, falling back to Indonesian.
func Message(key MessageKey, locale string) string {
	texts, ok := messages[key]
	if !ok {
		return string(key)
	}
	if text, ok := texts[strings.ToLower(locale)]; ok {
		return text
	}
	return texts["id"]
}
