package model

import (
	"mime"
	"path/filepath"
	"sort"
	"strings"
)

// Типы содержимого офисных документов.
const (
	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypeDOC  = "application/msword"
	ContentTypeODT  = "application/vnd.oasis.opendocument.text"
	ContentTypeRTF  = "application/rtf"
	ContentTypeText = "text/plain"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeXLS  = "application/vnd.ms-excel"
	ContentTypeODS  = "application/vnd.oasis.opendocument.spreadsheet"
	ContentTypeCSV  = "text/csv"
	ContentTypePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	ContentTypePPT  = "application/vnd.ms-powerpoint"
	ContentTypeODP  = "application/vnd.oasis.opendocument.presentation"
	ContentTypePDF  = "application/pdf"

	ContentTypeOctetStream = "application/octet-stream"
)

// supportedExtensions — allow-list расширений и их MIME-типы.
// Набор фиксирован на время жизни процесса.
var supportedExtensions = map[string]string{
	// Текстовые документы
	".docx": ContentTypeDOCX,
	".doc":  ContentTypeDOC,
	".odt":  ContentTypeODT,
	".rtf":  ContentTypeRTF,
	".txt":  ContentTypeText,
	// Таблицы
	".xlsx": ContentTypeXLSX,
	".xls":  ContentTypeXLS,
	".ods":  ContentTypeODS,
	".csv":  ContentTypeCSV,
	// Презентации
	".pptx": ContentTypePPTX,
	".ppt":  ContentTypePPT,
	".odp":  ContentTypeODP,
	// PDF
	".pdf": ContentTypePDF,
}

// ExtensionOf возвращает расширение имени файла в нижнем регистре (".docx").
// Для имени без расширения, имени из одного расширения (".docx")
// и имени с точкой на конце возвращает пустую строку.
func ExtensionOf(filename string) string {
	base := filepath.Base(filename)
	i := strings.LastIndex(base, ".")
	if i <= 0 || i == len(base)-1 {
		return ""
	}
	return strings.ToLower(base[i:])
}

// IsSupportedExtension проверяет расширение по allow-list.
func IsSupportedExtension(ext string) bool {
	_, ok := supportedExtensions[ext]
	return ok
}

// SupportedExtensions возвращает отсортированный список допустимых расширений.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(supportedExtensions))
	for ext := range supportedExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// ContentTypeForFilename определяет MIME-тип по расширению имени файла.
// Сначала встроенная таблица allow-list, затем системная база mime,
// в крайнем случае application/octet-stream.
func ContentTypeForFilename(filename string) string {
	ext := ExtensionOf(filename)
	if ext == "" {
		return ContentTypeOctetStream
	}
	if ct, ok := supportedExtensions[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return ContentTypeOctetStream
}
