package export

import (
	"fmt"
	"log"
	"net/url"

	"github.com/skip2/go-qrcode"
)

// FormQRCode кодирует ссылку на веб-форму в PNG 256x256.
func FormQRCode(link string) ([]byte, error) {
	u, err := url.Parse(link)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("некорректная ссылка на форму: %q", link)
	}

	// qrcode.Medium - уровень коррекции ошибок, 256 - размер в пикселях.
	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		log.Printf("FormQRCode: ошибка кодирования QR-кода для ссылки '%s': %v", link, err)
		return nil, err
	}
	return png, nil
}
