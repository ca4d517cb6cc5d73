package assistant

import (
	"encoding/json"
	"fmt"
)

// TutorInstruction is the system instruction of the chat persona.
const TutorInstruction = `You are a professional educational assistant and mentor at the EduControl digital college.
Help students and teachers with education, science, careers and self-development.
Answer clearly and encouragingly in the user's language.
If a question is unrelated to education or the college, politely steer the conversation back to academic topics.`

// StudentReportPrompt asks for three pieces of advice based on a student's performance.
func StudentReportPrompt(name string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`Analyse the student's performance and give three pieces of advice.
Student: %s
Data: %s`, name, data), nil
}

// CollectiveReportPrompt asks for an administration report over institution-wide data.
func CollectiveReportPrompt(payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`Analyse the overall performance, attendance and state of the college from the data below.
Write a professional, structured analytical report for the administration.
Cover:
1. Overall trends (performance vs attendance).
2. Leading groups and groups that need attention.
3. Concrete recommendations for improving the educational process.
Data: %s`, data), nil
}
