package services

import (
	"bytes"
	"fmt"
	"html/template"
)

const emailLayout = `{{define "layout"}}<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
</head>
<body style="font-family: 'Segoe UI', sans-serif; background: #f4f4f5; padding: 40px; margin: 0;">
  <div style="max-width: 600px; margin: 0 auto; background: white; border-radius: 16px; overflow: hidden; box-shadow: 0 4px 6px rgba(0,0,0,0.1);">
    {{template "body" .}}
    <div style="background: #f4f4f5; padding: 20px; text-align: center; color: #9ca3af; font-size: 14px;">
      Vibe Coding Academy - Aprende construyendo, no estudiando
    </div>
  </div>
</body>
</html>{{end}}`

const welcomeBody = `{{define "body"}}
    <div style="background: linear-gradient(135deg, #0891b2, #06b6d4); padding: 40px; text-align: center;">
      <h1 style="color: white; margin: 0; font-size: 28px;">¡Bienvenido a Vibe Coding Academy!</h1>
    </div>
    <div style="padding: 40px;">
      <p style="font-size: 18px; color: #374151;">¡Hola <strong>{{.UserName}}</strong>!</p>
      <p style="color: #6b7280; line-height: 1.6;">
        Estamos emocionados de tenerte aquí. Estás a punto de comenzar un viaje
        increíble donde aprenderás a construir aplicaciones con IA.
      </p>
      <p style="color: #6b7280; line-height: 1.6;">
        <strong>Tu primera misión ya está desbloqueada.</strong> Prepárate para
        construir tu primer asistente IA en menos de lo que imaginas.
      </p>
      <div style="text-align: center; margin-top: 30px;">
        <a href="{{.FrontendURL}}/dashboard" style="background: linear-gradient(135deg, #0891b2, #06b6d4); color: white; padding: 16px 32px; border-radius: 8px; text-decoration: none; font-weight: bold; display: inline-block;">Comenzar Primera Misión →</a>
      </div>
    </div>
{{end}}`

const missionCompletedBody = `{{define "body"}}
    <div style="background: linear-gradient(135deg, #10b981, #34d399); padding: 40px; text-align: center;">
      <h1 style="color: white; margin: 0; font-size: 28px;">¡Misión Completada!</h1>
    </div>
    <div style="padding: 40px;">
      <p style="font-size: 18px; color: #374151;">¡Felicidades <strong>{{.UserName}}</strong>!</p>
      <div style="background: #f0fdf4; border-left: 4px solid #10b981; padding: 20px; margin: 20px 0; border-radius: 8px;">
        <h2 style="margin: 0; color: #10b981;">Misión {{.MissionNumber}}: {{.MissionTitle}}</h2>
      </div>
      <div style="text-align: center; margin: 30px 0;">
        <div style="font-size: 48px; font-weight: bold; color: #10b981;">+{{.Points}}</div>
        <div style="color: #6b7280;">Puntos ganados</div>
      </div>
      {{- if .NextMissionTitle}}
      <div style="background: #fef3c7; padding: 20px; border-radius: 8px; text-align: center;">
        <p style="margin: 0; color: #92400e;">🚀 <strong>Siguiente misión desbloqueada:</strong><br>{{.NextMissionTitle}}</p>
      </div>
      {{- end}}
      <div style="text-align: center; margin-top: 30px;">
        <a href="{{.FrontendURL}}/dashboard" style="background: linear-gradient(135deg, #10b981, #34d399); color: white; padding: 16px 32px; border-radius: 8px; text-decoration: none; font-weight: bold; display: inline-block;">Continuar Aprendiendo →</a>
      </div>
    </div>
{{end}}`

const certificateBody = `{{define "body"}}
    <div style="background: linear-gradient(135deg, #f59e0b, #fbbf24); padding: 40px; text-align: center;">
      <h1 style="color: white; margin: 0; font-size: 28px;">🏆 ¡Certificado Obtenido!</h1>
    </div>
    <div style="padding: 40px;">
      <p style="font-size: 18px; color: #374151;">¡Increíble trabajo, <strong>{{.UserName}}</strong>!</p>
      <p style="color: #6b7280; line-height: 1.6;">
        Has completado todas las misiones del nivel <strong>{{.JourneyName}}</strong>
        y has obtenido tu certificado oficial.
      </p>
      <div style="background: #fef3c7; padding: 20px; border-radius: 8px; margin: 20px 0;">
        <p style="margin: 0; color: #92400e; font-size: 14px;">
          <strong>Certificado N°:</strong> {{.CertificateNumber}}<br>
          <strong>Verificación:</strong> {{.FrontendURL}}/verify/{{.VerificationCode}}
        </p>
      </div>
      <p style="color: #6b7280; line-height: 1.6;">Tu certificado en PDF está adjunto a este email. ¡Compártelo con orgullo!</p>
      <div style="text-align: center; margin-top: 30px;">
        <a href="{{.FrontendURL}}/certificates" style="background: linear-gradient(135deg, #f59e0b, #fbbf24); color: white; padding: 16px 32px; border-radius: 8px; text-decoration: none; font-weight: bold; display: inline-block;">Ver Mis Certificados →</a>
      </div>
    </div>
{{end}}`

var (
	welcomeTmpl          = template.Must(template.Must(template.New("welcome").Parse(emailLayout)).Parse(welcomeBody))
	missionCompletedTmpl = template.Must(template.Must(template.New("mission_completed").Parse(emailLayout)).Parse(missionCompletedBody))
	certificateTmpl      = template.Must(template.Must(template.New("certificate").Parse(emailLayout)).Parse(certificateBody))
)

type WelcomeEmail struct {
	UserName    string
	FrontendURL string
}

type MissionCompletedEmail struct {
	UserName         string
	MissionNumber    int
	MissionTitle     string
	Points           int
	NextMissionTitle string
	FrontendURL      string
}

type CertificateEmail struct {
	UserName          string
	JourneyName       string
	CertificateNumber string
	VerificationCode  string
	FrontendURL       string
}

func WelcomeSubject() string { return "¡Bienvenido a Vibe Coding Academy!" }

func MissionCompletedSubject(number int) string {
	return fmt.Sprintf("¡Misión %d completada!", number)
}

func CertificateSubject(journeyName string) string {
	return fmt.Sprintf("¡Felicitaciones! Tu Certificado de %s", journeyName)
}

func RenderWelcomeEmail(data WelcomeEmail) (string, error) {
	return renderEmail(welcomeTmpl, data)
}

func RenderMissionCompletedEmail(data MissionCompletedEmail) (string, error) {
	return renderEmail(missionCompletedTmpl, data)
}

func RenderCertificateEmail(data CertificateEmail) (string, error) {
	return renderEmail(certificateTmpl, data)
}

func renderEmail(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", fmt.Errorf("render %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}
