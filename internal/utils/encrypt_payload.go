package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"strconv"
	"time"
)

const requestTimeKey = "1,1,0"

// EncryptRequestTime 生成 request-time 请求头。
// 算法：
// 1) 当前毫秒时间戳转为十进制字符串
// 2) 密钥为 "1,1,0"，右侧补 0 到 32 字节，AES-256-GCM 加密，12 字节随机 nonce
// 3) nonce || 密文 整体 Base64 编码
func EncryptRequestTime(now time.Time) (string, error) {
	return encryptGCM(strconv.FormatInt(now.UnixMilli(), 10), requestTimeKey)
}

func encryptGCM(plaintext, keyStr string) (string, error) {
	var key [32]byte
	copy(key[:], keyStr)

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	out := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(out), nil
}
