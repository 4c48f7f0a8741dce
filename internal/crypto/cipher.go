package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/iudanet/synckeeper/internal/codec"
)

const (
	// NonceSize - размер IV для AES-GCM (12 bytes стандартный размер)
	NonceSize = 12
	// SaltSize - размер соли PBKDF2 в байтах
	SaltSize = 16
	// KeySize - длина ключа AES-256 в байтах
	KeySize = 32
	// KDFIterations - количество итераций PBKDF2-SHA256
	KDFIterations = 100000
)

// DevPassword - пароль по умолчанию для разработки.
// ОБЯЗАТЕЛЬНО заменить перед любым реальным развертыванием:
// читайте пароль из окружения или интерактивного запроса.
const DevPassword = "synckeeper-dev-only"

// ErrDecrypt indicates missing key material, bad ciphertext encoding,
// wrong password or authentication tag mismatch
var ErrDecrypt = errors.New("decryption failed")

// Box представляет зашифрованный контейнер в on-disk форме.
// Все три поля - lowercase hex строки; контейнер сериализуется
// канонически с фиксированным порядком ключей salt, iv, text.
type Box struct {
	Salt string
	IV   string
	Text string
}

// deriveKey выводит 256-битный ключ AES из пароля и соли.
// PBKDF2-SHA256 со 100000 итераций согласно протоколу хранения.
func deriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, KDFIterations, KeySize, sha256.New)
}

// Encrypt шифрует данные AES-256-GCM под ключом, выведенным из пароля.
// Соль и IV генерируются заново на каждый вызов из crypto/rand.
func Encrypt(plaintext []byte, password string) (*Box, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	iv := make([]byte, NonceSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("failed to generate iv: %w", err)
	}

	block, err := aes.NewCipher(deriveKey(password, salt))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	// GCM добавляет authentication tag в конец ciphertext
	ciphertext := aesGCM.Seal(nil, iv, plaintext, nil)

	return &Box{
		Salt: hex.EncodeToString(salt),
		IV:   hex.EncodeToString(iv),
		Text: hex.EncodeToString(ciphertext),
	}, nil
}

// Decrypt дешифрует контейнер, зашифрованный Encrypt.
// Возвращает ErrDecrypt при неверном пароле, поврежденных данных
// или несовпадении authentication tag.
func Decrypt(box *Box, password string) ([]byte, error) {
	if box.Salt == "" || box.IV == "" || box.Text == "" {
		return nil, fmt.Errorf("%w: missing container fields", ErrDecrypt)
	}

	salt, err := hex.DecodeString(box.Salt)
	if err != nil {
		return nil, fmt.Errorf("%w: bad salt encoding: %v", ErrDecrypt, err)
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: salt must be %d bytes, got %d", ErrDecrypt, SaltSize, len(salt))
	}

	iv, err := hex.DecodeString(box.IV)
	if err != nil {
		return nil, fmt.Errorf("%w: bad iv encoding: %v", ErrDecrypt, err)
	}
	if len(iv) != NonceSize {
		return nil, fmt.Errorf("%w: iv must be %d bytes, got %d", ErrDecrypt, NonceSize, len(iv))
	}

	ciphertext, err := hex.DecodeString(box.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: bad ciphertext encoding: %v", ErrDecrypt, err)
	}

	block, err := aes.NewCipher(deriveKey(password, salt))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	plaintext, err := aesGCM.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: authentication failed or corrupted data", ErrDecrypt)
	}

	return plaintext, nil
}

// Marshal сериализует контейнер в каноническую форму {salt, iv, text}.
func (b *Box) Marshal() ([]byte, error) {
	obj := codec.NewObject().
		Set("salt", b.Salt).
		Set("iv", b.IV).
		Set("text", b.Text)
	return codec.Serialize(obj)
}

// ParseBox разбирает каноническую форму контейнера.
// Порядок ключей при разборе не важен, важен только при записи.
func ParseBox(data []byte) (*Box, error) {
	obj, err := codec.ParseObject(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}

	box := &Box{}
	fields := map[string]*string{
		"salt": &box.Salt,
		"iv":   &box.IV,
		"text": &box.Text,
	}
	for name, dst := range fields {
		raw, ok := obj[name]
		if !ok {
			return nil, fmt.Errorf("%w: missing field %q", ErrDecrypt, name)
		}
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: field %q must be a string", ErrDecrypt, name)
		}
		*dst = s
	}

	return box, nil
}
