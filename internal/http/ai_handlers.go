package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"eduai-backend-go/internal/ai"
	"eduai-backend-go/internal/models"
	"eduai-backend-go/internal/services"
	"eduai-backend-go/internal/sse"
)

const chatSystemPrompt = "You are EduAI Asistent, a helpful teaching assistant for Czech schools. " +
	"Answer in the language the teacher writes in. Be concrete and classroom-ready."

var materialPrompts = map[string]string{
	"worksheet":   "You create printable worksheets. Produce a titled worksheet with numbered exercises and an answer key at the end.",
	"lesson_plan": "You create lesson plans. Produce a titled plan with objectives, a timed activity sequence and materials needed.",
	"quiz":        "You create quizzes. Produce a titled quiz with numbered questions, multiple choice where sensible, and an answer key at the end.",
}

type chatStreamRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// StreamChat relays one chat turn: debit credits, persist the user
// message, stream the completion as SSE frames, persist the assistant
// reply. A provider failure after the debit refunds the credits.
func (s *Server) StreamChat(w http.ResponseWriter, r *http.Request) {
	var req chatStreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.SessionID == "" || req.Message == "" {
		WriteError(w, http.StatusBadRequest, "sessionId and message are required")
		return
	}
	userID := CurrentUserID(r)
	session, err := services.GetChatSession(r.Context(), s.DB, req.SessionID, userID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	cost := s.Config.ChatMessageCost
	if _, err := services.SpendCredits(r.Context(), s.DB, userID, cost, "AI chat message"); err != nil {
		WriteServiceError(w, err)
		return
	}
	refund := func(reason string) {
		if _, err := services.RefundCredits(r.Context(), s.DB, userID, cost, reason); err != nil {
			log.Printf("credit refund failed for user %s: %v", userID, err)
		}
	}

	if _, err := services.AppendChatMessage(r.Context(), s.DB, session.ID, "user", req.Message, 0); err != nil {
		refund("Chat message not delivered")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	history, err := services.ChatHistory(r.Context(), s.DB, session.ID, chatSystemPrompt)
	if err != nil {
		refund("Chat message not delivered")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	stream, err := sse.NewWriter(w)
	if err != nil {
		refund("Chat message not delivered")
		WriteError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}
	_ = stream.Start(session.ID)

	started := time.Now()
	var reply strings.Builder
	usage, err := s.streamCompletion(r, stream, ai.Request{
		Model:       s.Config.OpenAIModel,
		Messages:    history,
		MaxTokens:   s.Config.OpenAIMaxTokens,
		Temperature: 0.7,
	}, func(delta string) {
		reply.WriteString(delta)
		_ = stream.Chunk(delta)
	})
	s.logAIRequest(userID, "chat", usage, started, err == nil)
	if err != nil {
		refund("AI chat failed")
		_ = stream.Error(providerMessage(err))
		return
	}

	if _, err := services.AppendChatMessage(r.Context(), s.DB, session.ID, "assistant", reply.String(), cost); err != nil {
		log.Printf("persisting assistant reply failed for session %s: %v", session.ID, err)
	}
	_ = stream.End(session.ID, usage.TokensUsed, cost)
}

func (s *Server) GenerateWorksheet(w http.ResponseWriter, r *http.Request) {
	s.streamMaterial(w, r, "worksheet")
}

func (s *Server) GenerateLessonPlan(w http.ResponseWriter, r *http.Request) {
	s.streamMaterial(w, r, "lesson_plan")
}

func (s *Server) GenerateQuiz(w http.ResponseWriter, r *http.Request) {
	s.streamMaterial(w, r, "quiz")
}

type materialRequest struct {
	Topic        string `json:"topic"`
	Grade        string `json:"grade"`
	Instructions string `json:"instructions"`
}

// streamMaterial generates a worksheet, lesson plan or quiz over SSE and
// saves the finished document to the caller's materials.
func (s *Server) streamMaterial(w http.ResponseWriter, r *http.Request, fileType string) {
	var req materialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		WriteError(w, http.StatusBadRequest, "topic is required")
		return
	}
	userID := CurrentUserID(r)

	cost := s.Config.WorksheetCost
	if _, err := services.SpendCredits(r.Context(), s.DB, userID, cost, "Material generation"); err != nil {
		WriteServiceError(w, err)
		return
	}

	prompt := fmt.Sprintf("Topic: %s", req.Topic)
	if req.Grade != "" {
		prompt += fmt.Sprintf("\nGrade level: %s", req.Grade)
	}
	if req.Instructions != "" {
		prompt += fmt.Sprintf("\nAdditional instructions: %s", req.Instructions)
	}

	stream, err := sse.NewWriter(w)
	if err != nil {
		if _, rerr := services.RefundCredits(r.Context(), s.DB, userID, cost, "Material generation failed"); rerr != nil {
			log.Printf("credit refund failed for user %s: %v", userID, rerr)
		}
		WriteError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}
	_ = stream.Start("")

	started := time.Now()
	var content strings.Builder
	usage, err := s.streamCompletion(r, stream, ai.Request{
		Model: s.Config.OpenAIModel,
		Messages: []ai.Message{
			{Role: "system", Content: materialPrompts[fileType]},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   s.Config.OpenAIMaxTokens,
		Temperature: s.Config.OpenAITempMaterials,
	}, func(delta string) {
		content.WriteString(delta)
		_ = stream.Chunk(delta)
	})
	s.logAIRequest(userID, fileType, usage, started, err == nil)
	if err != nil {
		if _, rerr := services.RefundCredits(r.Context(), s.DB, userID, cost, "Material generation failed"); rerr != nil {
			log.Printf("credit refund failed for user %s: %v", userID, rerr)
		}
		_ = stream.Error(providerMessage(err))
		return
	}

	file, err := services.SaveGeneratedFile(r.Context(), s.DB, userID, fileType, req.Topic, content.String())
	if err != nil {
		log.Printf("saving generated %s failed for user %s: %v", fileType, userID, err)
	}
	_ = stream.End(file.ID, usage.TokensUsed, cost)
}

// streamCompletion calls the provider with retries, pinging the client
// while the provider is quiet so intermediaries keep the connection
// open. Once any content has reached the client a retry would duplicate
// output, so failures after the first delta are surfaced as-is.
func (s *Server) streamCompletion(r *http.Request, stream *sse.Writer, req ai.Request, onDelta func(string)) (ai.Usage, error) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = stream.KeepAlive()
			case <-done:
				return
			case <-r.Context().Done():
				return
			}
		}
	}()

	var usage ai.Usage
	emitted := false
	err := ai.WithRetry(r.Context(), func() error {
		var err error
		usage, err = s.Provider.StreamChat(r.Context(), req, func(delta string) {
			emitted = true
			onDelta(delta)
		})
		if err != nil && emitted {
			return errors.New("stream interrupted: " + err.Error())
		}
		return err
	})
	return usage, err
}

// providerMessage turns a provider failure into a user-facing string
// without leaking upstream details.
func providerMessage(err error) string {
	var perr *ai.ProviderError
	if errors.As(err, &perr) {
		switch perr.Kind {
		case ai.KindRateLimit:
			return "The AI service is busy, please try again in a moment"
		case ai.KindAuthentication, ai.KindAuthorization:
			return "The AI service rejected the request"
		case ai.KindValidation:
			return "The AI service could not process this request"
		case ai.KindNetwork, ai.KindServer:
			return "The AI service is temporarily unavailable"
		}
	}
	return "AI request failed"
}

func (s *Server) logAIRequest(userID, requestType string, usage ai.Usage, started time.Time, success bool) {
	model := usage.Model
	if model == "" {
		model = s.Config.OpenAIModel
	}
	record := models.AIRequest{
		UserID:           &userID,
		RequestType:      requestType,
		ProviderID:       s.Provider.Name(),
		ModelUsed:        model,
		TokensUsed:       usage.TokensUsed,
		ProcessingTimeMs: time.Since(started).Milliseconds(),
		Success:          success,
	}
	// Background context so the log survives a dropped client.
	if err := services.LogAIRequest(context.Background(), s.DB, record); err != nil {
		log.Printf("ai request log failed: %v", err)
	}
}
