package client

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQRReaderDecodeFile(t *testing.T) {
	payload := "DocNo:INV-2024/0098;DocDt:07-03-2024;TotInvVal:23124.40"
	matrix, err := qrcode.NewQRCodeWriter().Encode(payload, gozxing.BarcodeFormat_QR_CODE, 300, 300, nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "qr.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, matrix))
	require.NoError(t, f.Close())

	text, err := NewQRReader().DecodeFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, text)
}

func TestQRReaderNoCode(t *testing.T) {
	blank := image.NewGray(image.Rect(0, 0, 100, 100))
	for i := range blank.Pix {
		blank.Pix[i] = 0xff
	}

	_, err := NewQRReader().Decode(blank)
	assert.Error(t, err)
}
