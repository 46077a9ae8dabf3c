package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"fypquiz_backend/internal/model"
	"fypquiz_backend/internal/util"

	"github.com/go-redis/redis/v8"
)

const maxUpdateRetries = 5

// SessionRepository 作答会话存 Redis。会话状态与朗读音频分开存放：
// 后台朗读只写 audio hash，不会覆盖请求线程对会话状态的修改
type SessionRepository struct {
	Redis *redis.Client
	ttl   time.Duration
}

func NewSessionRepository(rdb *redis.Client, ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionRepository{Redis: rdb, ttl: ttl}
}

func sessionKey(id string) string { return "quiz:session:" + id }

func audioKey(id string) string { return "quiz:session:" + id + ":audio" }

func eventChannel(id string) string { return "quiz:session:" + id + ":events" }

func (r *SessionRepository) Create(ctx context.Context, s *model.QuizSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	ok, err := r.Redis.SetNX(ctx, sessionKey(s.ID), data, r.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("quiz session %s already exists", s.ID)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*model.QuizSession, error) {
	data, err := r.Redis.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, util.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var s model.QuizSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode quiz session %s: %w", id, err)
	}
	return &s, nil
}

// Update 乐观锁读-改-写，fn 返回错误时不写回
func (r *SessionRepository) Update(ctx context.Context, id string, fn func(*model.QuizSession) error) (*model.QuizSession, error) {
	key := sessionKey(id)
	var result *model.QuizSession

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return util.ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		var s model.QuizSession
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode quiz session %s: %w", id, err)
		}
		if err := fn(&s); err != nil {
			return err
		}
		out, err := json.Marshal(&s)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, r.ttl)
			return nil
		})
		if err == nil {
			result = &s
		}
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := r.Redis.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return result, err
	}
	return nil, fmt.Errorf("quiz session %s: too many concurrent updates", id)
}

// Delete 删除会话及其 audio hash，返回删除时已写入的音频地址。
// 与 SetAudio 在同一事务语义下进行，删除之后不会再有音频写入
func (r *SessionRepository) Delete(ctx context.Context, id string) ([]string, error) {
	var fields *redis.StringStringMapCmd
	_, err := r.Redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(id))
		fields = pipe.HGetAll(ctx, audioKey(id))
		pipe.Del(ctx, audioKey(id))
		return nil
	})
	if err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(fields.Val()))
	for _, u := range fields.Val() {
		if u != "" {
			urls = append(urls, u)
		}
	}
	return urls, nil
}

// SetAudio 写入从 start 开始的一段音频地址，空串表示该题朗读失败。
// 会话已删除时返回 ErrSessionNotFound，不会重新建出 audio hash
func (r *SessionRepository) SetAudio(ctx context.Context, id string, start int, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	values := make(map[string]interface{}, len(urls))
	for i, u := range urls {
		values[strconv.Itoa(start+i)] = u
	}
	key := sessionKey(id)

	txf := func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return util.ErrSessionNotFound
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, audioKey(id), values)
			pipe.Expire(ctx, audioKey(id), r.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := r.Redis.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("quiz session %s: too many concurrent audio writes", id)
}

// GetAudio 返回长度为 total 的地址列表，未生成的位置为空串
func (r *SessionRepository) GetAudio(ctx context.Context, id string, total int) ([]string, error) {
	fields, err := r.Redis.HGetAll(ctx, audioKey(id)).Result()
	if err != nil {
		return nil, err
	}
	urls := make([]string, total)
	for k, v := range fields {
		idx, err := strconv.Atoi(k)
		if err != nil || idx < 0 || idx >= total {
			continue
		}
		urls[idx] = v
	}
	return urls, nil
}

// AudioReady 已返回结果（包括失败）的题目数
func (r *SessionRepository) AudioReady(ctx context.Context, id string) (int64, error) {
	return r.Redis.HLen(ctx, audioKey(id)).Result()
}

// Publish 推送会话事件，多实例部署时由订阅方转发给 WebSocket 客户端
func (r *SessionRepository) Publish(ctx context.Context, id string, payload []byte) error {
	return r.Redis.Publish(ctx, eventChannel(id), payload).Err()
}

func (r *SessionRepository) Subscribe(ctx context.Context, id string) *redis.PubSub {
	return r.Redis.Subscribe(ctx, eventChannel(id))
}
