package idgen

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"strings"
	"time"
)

const (
	InvoicePrefix    = "INV"
	invoiceTimeFmt   = "20060102150405"
	invoiceRandBytes = 2
)

// InvoiceGenerator 发票号生成器
//
// 格式：INV + 年月日时分秒 + "-" + 随机后缀（2字节，大写十六进制）
// 例如：INV20240115143052-9F3A
//
// 秒级时间戳 + 16位随机数并不能从构造上保证全局唯一，
// 最终唯一性由 transaction_histories.invoice_number 的唯一索引兜底
type InvoiceGenerator struct {
	prefix string
	now    func() time.Time
	random io.Reader
}

// NewInvoiceGenerator 创建默认发票号生成器
func NewInvoiceGenerator() *InvoiceGenerator {
	return &InvoiceGenerator{
		prefix: InvoicePrefix,
		now:    time.Now,
		random: rand.Reader,
	}
}

// Generate 生成发票号
func (g *InvoiceGenerator) Generate() string {
	buf := make([]byte, invoiceRandBytes)
	if _, err := io.ReadFull(g.random, buf); err != nil {
		// 随机源不可用时退化为雪花ID低位
		id := NextID()
		buf[0], buf[1] = byte(id>>8), byte(id)
	}
	return g.prefix + g.now().Format(invoiceTimeFmt) + "-" + strings.ToUpper(hex.EncodeToString(buf))
}

var defaultInvoiceGenerator = NewInvoiceGenerator()

// GenerateInvoiceNo 使用默认生成器生成发票号
func GenerateInvoiceNo() string {
	return defaultInvoiceGenerator.Generate()
}
