package proxy

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/sgr-desktop/sgr-proxy/internal/config"
)

// allowedImageExtensions is the upload allow-list, lowercase without dots.
var allowedImageExtensions = []string{"png", "jpg", "jpeg", "gif", "webp", "svg"}

func allowedImageFile(filename string) bool {
	idx := strings.LastIndexByte(filename, '.')
	if idx < 0 {
		return false
	}
	ext := strings.ToLower(filename[idx+1:])
	for _, allowed := range allowedImageExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// UploadImage relays a menu item image to the backend. The desktop client
// sends the file as "imagem" or "file"; validation (extension, size) happens
// here so oversized or unsupported files never leave the machine.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	// +1 so an exactly-too-big file is detected rather than truncated.
	if err := r.ParseMultipartForm(config.MaxUploadSize + 1); err != nil {
		writeError(w, http.StatusBadRequest, "Nenhum arquivo enviado")
		return
	}

	file, header, err := r.FormFile("imagem")
	if err != nil {
		file, header, err = r.FormFile("file")
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "Nenhum arquivo enviado")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "Nenhum arquivo selecionado")
		return
	}
	if !allowedImageFile(header.Filename) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf(
			"Formato de arquivo não permitido. Use: %s",
			strings.Join(allowedImageExtensions, ", ")))
		return
	}

	content, err := io.ReadAll(io.LimitReader(file, config.MaxUploadSize+1))
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Erro ao fazer upload: %s", err))
		return
	}
	if int64(len(content)) > config.MaxUploadSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf(
			"Arquivo muito grande. Tamanho máximo: %.1fMB",
			float64(config.MaxUploadSize)/(1024*1024)))
		return
	}

	status, body := h.client.ForwardMultipart(r.Context(), "itens/upload",
		header.Filename, header.Header.Get("Content-Type"), content, 0)

	if status == http.StatusOK {
		url := gjson.GetBytes(body, "url")
		if !url.Exists() && !gjson.ValidBytes(body) {
			writeError(w, http.StatusInternalServerError, "Erro ao processar resposta do servidor")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "success",
			"message": "Imagem enviada com sucesso",
			"url":     url.String(),
		})
		return
	}

	msg := messageOrDefault(body, fmt.Sprintf("Erro no upload: Status %d", status))
	writeError(w, status, msg)
}
