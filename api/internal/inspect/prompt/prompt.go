package prompt

import (
	"patrol-ai/api/internal/inspect/types"
)

// Instruction is sent with every image. The allowed values must stay in sync
// with types.Statuses and types.Severities.
const Instruction = `คุณคือผู้เชี่ยวชาญด้านวิศวกรรมไฟฟ้าและการตรวจสอบอุปกรณ์ระบบจำหน่ายไฟฟ้า (Patrol Officer)
หน้าที่ของคุณคือวิเคราะห์ภาพถ่ายของลูกถ้วยไฟฟ้า (Electrical Insulator)

กรุณาวิเคราะห์ภาพนี้และระบุข้อมูลดังต่อไปนี้:

1. สถานะหลัก (Status) เลือก 1 อย่าง:
   - NORMAL (ปกติ)
   - FLASHOVER (เกิด Flashover/รอยไหม้)
   - BROKEN (แตกหัก/บิ่น)
   - DIRTY (สกปรก/มีคราบ)
   - CORROSION (สนิมกัดกร่อน)
   - UNCLEAR (ไม่ชัดเจน)

2. ระดับความรุนแรง (Severity):
   - HIGH: อันตราย, เสียหายหนัก, แตกหัก, หรือมีรอยไหม้ชัดเจน (ต้องแก้ไขทันที)
   - MEDIUM: เสียหายปานกลาง, มีสนิมมาก, หรือสกปรกมากจนอาจเกิด Flashover (ควรวางแผนแก้ไข)
   - LOW: เสียหายเล็กน้อย, สกปรกเล็กน้อย, หรือสนิมเริ่มเกาะ (เฝ้าระวัง)
   - NORMAL: สภาพปกติ (ไม่ต้องดำเนินการ)

3. จุดสังเกตที่พบ (Detected Issues):
   - ระบุสิ่งที่พบเป็นรายการสั้นๆ ภาษาไทย เช่น "รอยไหม้ที่ปีกนก", "รอยบิ่นที่ขอบ", "คราบสนิมที่สลัก", "ฝุ่นเกาะหนา"

ให้คำตอบเป็น JSON เท่านั้น พร้อมคำอธิบายและคำแนะนำ`

// Field descriptions shared by both schema renditions.
var FieldDescriptions = map[string]string{
	types.FieldStatus:         "The condition status of the insulator.",
	types.FieldSeverity:       "The severity level of the issue.",
	types.FieldConfidence:     "Confidence score between 0 and 100.",
	types.FieldDescription:    "Detailed description of the observation in Thai.",
	types.FieldRecommendation: "Actionable recommendation for the patrol officer in Thai.",
	types.FieldDetectedIssues: "List of specific visual issues detected in Thai.",
}

func StatusValues() []string {
	out := make([]string, 0, len(types.Statuses()))
	for _, s := range types.Statuses() {
		out = append(out, string(s))
	}
	return out
}

func SeverityValues() []string {
	out := make([]string, 0, len(types.Severities()))
	for _, s := range types.Severities() {
		out = append(out, string(s))
	}
	return out
}

// Schema is the output schema in the OpenAPI subset generateContent accepts
// as responseSchema.
func Schema() map[string]any {
	return map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			types.FieldStatus: map[string]any{
				"type":        "STRING",
				"format":      "enum",
				"enum":        StatusValues(),
				"description": FieldDescriptions[types.FieldStatus],
			},
			types.FieldSeverity: map[string]any{
				"type":        "STRING",
				"format":      "enum",
				"enum":        SeverityValues(),
				"description": FieldDescriptions[types.FieldSeverity],
			},
			types.FieldConfidence: map[string]any{
				"type":        "NUMBER",
				"description": FieldDescriptions[types.FieldConfidence],
			},
			types.FieldDescription: map[string]any{
				"type":        "STRING",
				"description": FieldDescriptions[types.FieldDescription],
			},
			types.FieldRecommendation: map[string]any{
				"type":        "STRING",
				"description": FieldDescriptions[types.FieldRecommendation],
			},
			types.FieldDetectedIssues: map[string]any{
				"type":        "ARRAY",
				"items":       map[string]any{"type": "STRING"},
				"description": FieldDescriptions[types.FieldDetectedIssues],
			},
		},
		"required": types.RequiredFields(),
	}
}
