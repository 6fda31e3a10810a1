package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"memchat/internal/ai"
	"memchat/internal/config"
	"memchat/internal/model"
	"memchat/internal/pkg/memu"
	"memchat/internal/repository"
)

// stubCompletion 记录收到的请求并返回预设结果
type stubCompletion struct {
	reply string
	err   error
	got   *ai.GenerateRequest
}

func (s *stubCompletion) Generate(_ context.Context, req *ai.GenerateRequest) (string, error) {
	s.got = req
	return s.reply, s.err
}

type chatFixture struct {
	svc          *ChatService
	convRepo     *repository.ConversationRepo
	msgRepo      *repository.MessageRepo
	settingsRepo *repository.SettingsRepo
	completion   *stubCompletion
}

func newChatFixture(memuURL string, completion *stubCompletion) *chatFixture {
	memCfg := &config.MemoryConfig{
		BaseURL:   memuURL,
		AgentID:   "memu_assistant",
		AgentName: "MemU Assistant",
	}
	f := &chatFixture{
		convRepo:     repository.NewConversationRepo(),
		msgRepo:      repository.NewMessageRepo(),
		settingsRepo: repository.NewSettingsRepo(),
		completion:   completion,
	}
	f.svc = NewChatService(f.convRepo, f.msgRepo, f.settingsRepo, memu.NewClient(memCfg), completion, memCfg)
	return f
}

func strPtr(s string) *string { return &s }

func TestChatServiceSendMessage(t *testing.T) {
	ctx := context.Background()

	Convey("消息交换编排", t, func() {
		Convey("未配置补全 Key 时直接拒绝且不产生数据变更", func() {
			f := newChatFixture("http://127.0.0.1:1", &stubCompletion{reply: "hi"})
			conv := f.convRepo.Create(ctx, &model.Conversation{UserID: "u1", Title: "t"})

			Convey("设置不存在", func() {
				_, err := f.svc.SendMessage(ctx, conv.ID, &model.SendMessageRequest{Content: "hello", UserID: "u1"})
				So(err, ShouldEqual, ErrAPIKeyMissing)
				So(f.msgRepo.ListByConversationID(ctx, conv.ID), ShouldBeEmpty)
			})

			Convey("设置存在但 Key 为空", func() {
				f.settingsRepo.Create(ctx, &model.Settings{UserID: "u1", OpenAIAPIKey: strPtr("")})
				_, err := f.svc.SendMessage(ctx, conv.ID, &model.SendMessageRequest{Content: "hello", UserID: "u1"})
				So(err, ShouldEqual, ErrAPIKeyMissing)
				So(f.msgRepo.ListByConversationID(ctx, conv.ID), ShouldBeEmpty)
			})
		})

		Convey("无记忆服务时的普通交换", func() {
			completion := &stubCompletion{reply: "Hi there!"}
			f := newChatFixture("http://127.0.0.1:1", completion)
			conv := f.convRepo.Create(ctx, &model.Conversation{UserID: "u1", Title: "t"})
			f.settingsRepo.Create(ctx, &model.Settings{
				UserID:       "u1",
				OpenAIAPIKey: strPtr("sk-test"),
				Temperature:  "0.3",
				MaxTokens:    "512",
				Model:        "gpt-4o-mini",
			})

			resp, err := f.svc.SendMessage(ctx, conv.ID, &model.SendMessageRequest{Content: "hello", UserID: "u1"})
			So(err, ShouldBeNil)

			Convey("返回持久化的两条消息", func() {
				So(resp.UserMessage.Role, ShouldEqual, model.MessageRoleUser)
				So(resp.UserMessage.Content, ShouldEqual, "hello")
				So(resp.AIMessage.Role, ShouldEqual, model.MessageRoleAssistant)
				So(resp.AIMessage.Content, ShouldEqual, "Hi there!")
				So(resp.AIMessage.MemoryContext, ShouldBeNil)
				So(f.msgRepo.ListByConversationID(ctx, conv.ID), ShouldHaveLength, 2)
			})

			Convey("补全请求携带用户设置", func() {
				So(completion.got.APIKey, ShouldEqual, "sk-test")
				So(completion.got.Model, ShouldEqual, "gpt-4o-mini")
				So(completion.got.Temperature, ShouldEqual, 0.3)
				So(completion.got.MaxTokens, ShouldEqual, 512)
				So(completion.got.History, ShouldHaveLength, 1)
				So(completion.got.History[0].Content, ShouldEqual, "hello")
				So(completion.got.SystemPrompt, ShouldContainSubstring, "You are MemU")
				So(completion.got.SystemPrompt, ShouldNotContainSubstring, "Memory Context:")
			})

			Convey("对话元数据被更新", func() {
				convs := f.convRepo.ListByUserID(ctx, "u1")
				So(*convs[0].LastMessage, ShouldEqual, "hello")
				So(*convs[0].MessageCount, ShouldEqual, "2")
			})

			Convey("第二次交换计数累加", func() {
				_, err := f.svc.SendMessage(ctx, conv.ID, &model.SendMessageRequest{Content: "again", UserID: "u1"})
				So(err, ShouldBeNil)

				convs := f.convRepo.ListByUserID(ctx, "u1")
				So(*convs[0].MessageCount, ShouldEqual, "4")
				So(*convs[0].LastMessage, ShouldEqual, "again")
			})
		})

		Convey("带记忆上下文的交换", func() {
			var retrieveBody map[string]string
			memuServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewDecoder(r.Body).Decode(&retrieveBody)
				w.Write([]byte(`{"memories":["likes tea"]}`))
			}))
			defer memuServer.Close()

			completion := &stubCompletion{reply: "You like tea."}
			f := newChatFixture(memuServer.URL, completion)
			conv := f.convRepo.Create(ctx, &model.Conversation{UserID: "u1", Title: "t"})
			f.settingsRepo.Create(ctx, &model.Settings{
				UserID:            "u1",
				OpenAIAPIKey:      strPtr("sk-test"),
				MemuAPIKey:        strPtr("mk-test"),
				AutoMemoryStorage: "false",
			})

			resp, err := f.svc.SendMessage(ctx, conv.ID, &model.SendMessageRequest{Content: "what do I like", UserID: "u1"})
			So(err, ShouldBeNil)

			Convey("检索请求使用配置的 userIdentifier", func() {
				So(retrieveBody["user_id"], ShouldEqual, "user001")
				So(retrieveBody["query"], ShouldEqual, "what do I like")
			})

			Convey("检索结果注入 system prompt 并随助手消息保存", func() {
				So(completion.got.SystemPrompt, ShouldContainSubstring, `Memory Context: {"memories":["likes tea"]}`)
				So(string(resp.AIMessage.MemoryContext), ShouldEqual, `{"memories":["likes tea"]}`)
			})
		})

		Convey("记忆检索失败降级为无上下文", func() {
			memuServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			}))
			defer memuServer.Close()

			completion := &stubCompletion{reply: "Hello anyway."}
			f := newChatFixture(memuServer.URL, completion)
			conv := f.convRepo.Create(ctx, &model.Conversation{UserID: "u1", Title: "t"})
			f.settingsRepo.Create(ctx, &model.Settings{
				UserID:            "u1",
				OpenAIAPIKey:      strPtr("sk-test"),
				MemuAPIKey:        strPtr("mk-test"),
				AutoMemoryStorage: "false",
			})

			resp, err := f.svc.SendMessage(ctx, conv.ID, &model.SendMessageRequest{Content: "hi", UserID: "u1"})
			So(err, ShouldBeNil)
			So(resp.AIMessage.Content, ShouldEqual, "Hello anyway.")
			So(resp.AIMessage.MemoryContext, ShouldBeNil)
			So(completion.got.SystemPrompt, ShouldNotContainSubstring, "Memory Context:")
		})

		Convey("contextAwareResponses 关闭时跳过检索", func() {
			var retrieveCalls int
			memuServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				retrieveCalls++
				w.Write([]byte(`{}`))
			}))
			defer memuServer.Close()

			f := newChatFixture(memuServer.URL, &stubCompletion{reply: "ok"})
			conv := f.convRepo.Create(ctx, &model.Conversation{UserID: "u1", Title: "t"})
			f.settingsRepo.Create(ctx, &model.Settings{
				UserID:                "u1",
				OpenAIAPIKey:          strPtr("sk-test"),
				MemuAPIKey:            strPtr("mk-test"),
				ContextAwareResponses: "false",
				AutoMemoryStorage:     "false",
			})

			_, err := f.svc.SendMessage(ctx, conv.ID, &model.SendMessageRequest{Content: "hi", UserID: "u1"})
			So(err, ShouldBeNil)
			So(retrieveCalls, ShouldEqual, 0)
		})

		Convey("补全失败时用户消息保留且元数据不更新", func() {
			f := newChatFixture("http://127.0.0.1:1", &stubCompletion{err: errors.New("rate limited")})
			conv := f.convRepo.Create(ctx, &model.Conversation{UserID: "u1", Title: "t"})
			f.settingsRepo.Create(ctx, &model.Settings{UserID: "u1", OpenAIAPIKey: strPtr("sk-test")})

			_, err := f.svc.SendMessage(ctx, conv.ID, &model.SendMessageRequest{Content: "hi", UserID: "u1"})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "rate limited")

			msgs := f.msgRepo.ListByConversationID(ctx, conv.ID)
			So(msgs, ShouldHaveLength, 1)
			So(msgs[0].Role, ShouldEqual, model.MessageRoleUser)

			convs := f.convRepo.ListByUserID(ctx, "u1")
			So(convs[0].MessageCount, ShouldBeNil)
		})

		Convey("模型返回空内容时使用兜底回复", func() {
			f := newChatFixture("http://127.0.0.1:1", &stubCompletion{reply: ""})
			conv := f.convRepo.Create(ctx, &model.Conversation{UserID: "u1", Title: "t"})
			f.settingsRepo.Create(ctx, &model.Settings{UserID: "u1", OpenAIAPIKey: strPtr("sk-test")})

			resp, err := f.svc.SendMessage(ctx, conv.ID, &model.SendMessageRequest{Content: "hi", UserID: "u1"})
			So(err, ShouldBeNil)
			So(resp.AIMessage.Content, ShouldEqual, "I couldn't generate a response.")
		})

		Convey("历史超过上限时只携带最近 10 条", func() {
			completion := &stubCompletion{reply: "ok"}
			f := newChatFixture("http://127.0.0.1:1", completion)
			conv := f.convRepo.Create(ctx, &model.Conversation{UserID: "u1", Title: "t"})
			f.settingsRepo.Create(ctx, &model.Settings{UserID: "u1", OpenAIAPIKey: strPtr("sk-test")})

			for i := 0; i < 12; i++ {
				f.msgRepo.Create(ctx, &model.Message{
					ConversationID: conv.ID,
					Role:           model.MessageRoleUser,
					Content:        fmt.Sprintf("old-%d", i),
				})
				time.Sleep(time.Millisecond)
			}

			_, err := f.svc.SendMessage(ctx, conv.ID, &model.SendMessageRequest{Content: "latest", UserID: "u1"})
			So(err, ShouldBeNil)
			So(completion.got.History, ShouldHaveLength, 10)
			So(completion.got.History[9].Content, ShouldEqual, "latest")
			So(completion.got.History[0].Content, ShouldEqual, "old-3")
		})

		Convey("autoMemoryStorage 开启时异步回写记忆", func() {
			memorized := make(chan map[string]string, 1)
			memuServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/memorize_conversation" {
					var body map[string]string
					json.NewDecoder(r.Body).Decode(&body)
					memorized <- body
				}
				w.Write([]byte(`{}`))
			}))
			defer memuServer.Close()

			f := newChatFixture(memuServer.URL, &stubCompletion{reply: "noted"})
			conv := f.convRepo.Create(ctx, &model.Conversation{UserID: "u1", Title: "t"})
			f.settingsRepo.Create(ctx, &model.Settings{
				UserID:                "u1",
				OpenAIAPIKey:          strPtr("sk-test"),
				MemuAPIKey:            strPtr("mk-test"),
				ContextAwareResponses: "false",
				AutoMemoryStorage:     "true",
			})

			_, err := f.svc.SendMessage(ctx, conv.ID, &model.SendMessageRequest{Content: "remember this", UserID: "u1"})
			So(err, ShouldBeNil)

			select {
			case body := <-memorized:
				So(body["conversation"], ShouldEqual, "User: remember this\nAssistant: noted")
				So(body["user_id"], ShouldEqual, "user001")
				So(body["agent_id"], ShouldEqual, "memu_assistant")
				So(body["agent_name"], ShouldEqual, "MemU Assistant")
			case <-time.After(2 * time.Second):
				t.Fatal("memorize request not received")
			}
		})
	})
}
