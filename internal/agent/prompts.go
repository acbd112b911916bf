package agent

import (
	"fmt"
	"strings"
)

// analysisPromptTemplate asks the model to map a Vietnamese question onto the
// closed action set as strict JSON.
const analysisPromptTemplate = `Phân tích câu hỏi về chứng khoán và trả về JSON:

Câu hỏi: "%s"

CÁC LOẠI ACTION:
- "price_history": Lấy lịch sử giá OHLCV đầy đủ
- "shareholders": Cổ đông lớn
- "officers": Ban lãnh đạo
- "subsidiaries": Công ty con
- "company_info": Thông tin công ty
- "rsi": Tính RSI
- "sma": Tính SMA
- "compare": So sánh GIÁ/OHLCV nhiều mã (hiển thị đầy đủ open, high, low, close, volume)
- "aggregate": Khi câu hỏi CHỈ QUAN TÂM một vài trường cụ thể (VD: chỉ volume, chỉ giá đóng cửa)

QUAN TRỌNG:
- Nếu câu hỏi có "so sánh volume" hoặc "so sánh khối lượng" -> dùng "compare" + display_fields
- Nếu câu hỏi có "tổng", "trung bình", "min", "max" -> dùng "aggregate"

TRÍCH XUẤT:
- symbols: Mã CK (VD: ["VCB"], ["VIC", "HPG"])
- time_phrase: "10 ngày", "2 tuần", "1 tháng"
- interval: "1D" (mặc định)
- windows: [9, 20] cho "SMA9 và SMA20", [14] cho "RSI14"
- display_fields: Danh sách trường cần hiển thị (cho "compare" hoặc "aggregate")
  Luôn bao gồm "time", thêm "symbol" nếu có nhiều mã

CHỈ trả JSON, KHÔNG giải thích.`

// answerPromptTemplate asks the model for a short narrative over a data sample.
const answerPromptTemplate = `Trả lời câu hỏi dựa trên dữ liệu cổ phiếu Việt Nam:

Câu hỏi: "%s"

Dữ liệu:
%s

Yêu cầu: Nêu số liệu quan trọng và ngôn ngữ tự nhiên

Trả lời:`

func analysisPrompt(question string) string {
	return fmt.Sprintf(analysisPromptTemplate, question)
}

func answerPrompt(question, dataSample string) string {
	return fmt.Sprintf(answerPromptTemplate, question, dataSample)
}

// Fixed user-facing messages for the error taxonomy.
const (
	msgNotConfigured    = "LLM chưa được cấu hình."
	msgNotUnderstood    = "Không hiểu câu hỏi. Vui lòng thử lại."
	msgMissingSymbol    = "Không xác định được mã chứng khoán"
	msgNoAnswer         = "Xin lỗi, không tạo được câu trả lời."
	sampleHeaderFormat  = "=== MẪU (5 đầu + 5 cuối) ===\n%s\n\nTổng: %d dòng"
	compareTotalFormat  = "\n\nTổng: %d dòng từ %d mã (%s)"
	unsupportedFormat   = "Action không hỗ trợ: %s"
	fetchFailureFormat  = "Lỗi lấy dữ liệu: %v"
	handleFailureFormat = "Lỗi xử lý: %v"
	narrativeErrFormat  = "Lỗi: %v"
)

func joinSymbols(symbols []string) string {
	return strings.Join(symbols, ", ")
}
