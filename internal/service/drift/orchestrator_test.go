package drift

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashwinyue/llm-drift/internal/model"
	"github.com/ashwinyue/llm-drift/internal/repository"
	"github.com/ashwinyue/llm-drift/internal/service/provider"
	"github.com/ashwinyue/llm-drift/internal/service/question"
	"github.com/ashwinyue/llm-drift/internal/service/similarity"
	"github.com/ashwinyue/llm-drift/internal/testutil"
)

func info(name string) provider.Info {
	return provider.Info{Name: name, Family: model.ProviderFamilyOpenAI, Model: name + "-model", Temperature: 0.7}
}

// answers 每次调用依次返回下一个回答，用完后重复最后一个
func answers(list ...string) func(ctx context.Context, q string) (string, error) {
	var n atomic.Int64
	return func(ctx context.Context, q string) (string, error) {
		i := int(n.Add(1)) - 1
		if i >= len(list) {
			i = len(list) - 1
		}
		return list[i], nil
	}
}

func failing(err error) func(ctx context.Context, q string) (string, error) {
	return func(ctx context.Context, q string) (string, error) {
		return "", err
	}
}

func newRegistry(t *testing.T, clients ...provider.Client) *provider.Registry {
	t.Helper()
	r, err := provider.NewRegistry(clients...)
	require.NoError(t, err)
	return r
}

func observationsFor(t *testing.T, repos *repository.Repositories, name string) []*model.Observation {
	t.Helper()
	obs, _, err := repos.ListObservations(context.Background(), repository.ObservationFilter{ProviderName: name, Limit: 100})
	require.NoError(t, err)
	return obs
}

func TestRunTick_EndToEnd(t *testing.T) {
	for _, concurrency := range []int{1, 2} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			ctx := context.Background()
			repos := repository.NewRepositories(testutil.NewTestDB(t))
			reg := newRegistry(t,
				provider.NewFunc(info("p1"), answers("alpha", "alpha")),
				provider.NewFunc(info("p2"), answers("beta", "gamma")),
			)
			o := NewOrchestrator(repos, reg, similarity.NewScorer(&testutil.FakeEmbedder{}),
				question.Texts("Q1"), Options{RequestTimeout: time.Second, Concurrency: concurrency})

			res, err := o.RunTick(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, res.Questions)
			assert.Equal(t, 2, res.Attempts)
			assert.Equal(t, 2, res.Stored)
			assert.Zero(t, res.Failed)

			count, err := repos.Observation.Count(ctx)
			require.NoError(t, err)
			assert.EqualValues(t, 2, count)
			for _, name := range []string{"p1", "p2"} {
				obs := observationsFor(t, repos, name)
				require.Len(t, obs, 1)
				assert.Nil(t, obs[0].SimilarityScore, "first observation has no score")
			}

			time.Sleep(5 * time.Millisecond)
			res, err = o.RunTick(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, res.Stored)

			count, err = repos.Observation.Count(ctx)
			require.NoError(t, err)
			assert.EqualValues(t, 4, count)

			p1 := observationsFor(t, repos, "p1")
			require.Len(t, p1, 2)
			require.NotNil(t, p1[1].SimilarityScore)
			assert.InDelta(t, 1.0, *p1[1].SimilarityScore, 1e-9)
			assert.Nil(t, p1[1].SimilarityError)

			p2 := observationsFor(t, repos, "p2")
			require.Len(t, p2, 2)
			assert.Equal(t, "gamma", p2[1].ResponseText)
			require.NotNil(t, p2[1].SimilarityScore)
			assert.Less(t, *p2[1].SimilarityScore, 1.0)

			// 每个提供商和问题只有一条记录
			models, err := repos.ListProviderModels(ctx)
			require.NoError(t, err)
			assert.Len(t, models, 2)
			_, total, err := repos.ListQuestions(ctx, 0, 10)
			require.NoError(t, err)
			assert.EqualValues(t, 1, total)
		})
	}
}

func TestRunTick_ProviderFailureIsolated(t *testing.T) {
	for _, concurrency := range []int{1, 2} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			ctx := context.Background()
			repos := repository.NewRepositories(testutil.NewTestDB(t))
			reg := newRegistry(t,
				provider.NewFunc(info("a"), answers("ok a")),
				provider.NewFunc(info("b"), failing(errors.New("HTTP 503"))),
				provider.NewFunc(info("c"), answers("ok c")),
			)
			o := NewOrchestrator(repos, reg, similarity.NewScorer(&testutil.FakeEmbedder{}),
				question.Texts("Q1", "Q2"), Options{Concurrency: concurrency})

			res, err := o.RunTick(ctx)
			require.NoError(t, err)
			assert.Equal(t, 6, res.Attempts)
			assert.Equal(t, 4, res.Stored)
			assert.Equal(t, 2, res.Failed)

			assert.Len(t, observationsFor(t, repos, "a"), 2)
			assert.Empty(t, observationsFor(t, repos, "b"))
			assert.Len(t, observationsFor(t, repos, "c"), 2)
		})
	}
}

func TestRunTick_DisabledProvider(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewRepositories(testutil.NewTestDB(t))
	reg := newRegistry(t,
		provider.NewDisabled(info("off")),
		provider.NewFunc(info("on"), answers("hello")),
	)
	o := NewOrchestrator(repos, reg, similarity.NewScorer(&testutil.FakeEmbedder{}), question.Texts("Q1"), Options{})

	for i := 0; i < 2; i++ {
		res, err := o.RunTick(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Failed)
		assert.Equal(t, 1, res.Stored)
		time.Sleep(2 * time.Millisecond)
	}

	assert.Empty(t, observationsFor(t, repos, "off"))
	assert.Len(t, observationsFor(t, repos, "on"), 2)
}

func TestRunTick_DisabledProviderSkipsRateLimit(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewRepositories(testutil.NewTestDB(t))
	reg := newRegistry(t,
		provider.NewDisabled(info("off1")),
		provider.NewDisabled(info("off2")),
		provider.NewDisabled(info("off3")),
		provider.NewFunc(info("on"), answers("hello")),
	)
	o := NewOrchestrator(repos, reg, similarity.NewScorer(&testutil.FakeEmbedder{}),
		question.Texts("Q1"), Options{RateLimit: time.Second})

	res, err := o.RunTick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Attempts)
	assert.Equal(t, 3, res.Failed)
	assert.Equal(t, 1, res.Stored)
	assert.Less(t, res.Duration, 500*time.Millisecond, "only the enabled provider waits on the limiter")
}

func TestRunTick_RequestTimeout(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewRepositories(testutil.NewTestDB(t))
	slow := provider.NewFunc(info("slow"), func(ctx context.Context, q string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	reg := newRegistry(t, slow, provider.NewFunc(info("fast"), answers("quick")))
	o := NewOrchestrator(repos, reg, similarity.NewScorer(&testutil.FakeEmbedder{}),
		question.Texts("Q1"), Options{RequestTimeout: 20 * time.Millisecond})

	res, err := o.RunTick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Stored)
}

func TestRunTick_ScorerFailureDegrades(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewRepositories(testutil.NewTestDB(t))
	reg := newRegistry(t, provider.NewFunc(info("p"), answers("one", "two")))
	emb := &testutil.FakeEmbedder{Err: errors.New("embedding quota exceeded")}
	o := NewOrchestrator(repos, reg, similarity.NewScorer(emb), question.Texts("Q1"), Options{})

	_, err := o.RunTick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, emb.Calls(), "first observation is not scored")

	time.Sleep(2 * time.Millisecond)
	res, err := o.RunTick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stored)
	assert.Equal(t, 1, res.ScoreFailures)

	obs := observationsFor(t, repos, "p")
	require.Len(t, obs, 2)
	require.NotNil(t, obs[1].SimilarityScore)
	assert.Equal(t, 0.0, *obs[1].SimilarityScore)
	require.NotNil(t, obs[1].SimilarityError)
	assert.Contains(t, *obs[1].SimilarityError, "quota")
}

// failingStore 在指定次数的写入后返回错误
type failingStore struct {
	repository.ResponseStore
	mu        sync.Mutex
	appends   int
	failAfter int
}

func (s *failingStore) AppendObservation(ctx context.Context, obs *model.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appends >= s.failAfter {
		return errors.New("disk full")
	}
	s.appends++
	return s.ResponseStore.AppendObservation(ctx, obs)
}

func TestRunTick_StorageErrorAborts(t *testing.T) {
	for _, concurrency := range []int{1, 2} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			ctx := context.Background()
			repos := repository.NewRepositories(testutil.NewTestDB(t))
			store := &failingStore{ResponseStore: repos, failAfter: 1}

			var calls atomic.Int64
			count := func(ctx context.Context, q string) (string, error) {
				calls.Add(1)
				return "answer", nil
			}
			reg := newRegistry(t,
				provider.NewFunc(info("a"), count),
				provider.NewFunc(info("b"), count),
				provider.NewFunc(info("c"), count),
			)
			o := NewOrchestrator(store, reg, similarity.NewScorer(&testutil.FakeEmbedder{}),
				question.Texts("Q1", "Q2"), Options{Concurrency: concurrency})

			res, err := o.RunTick(ctx)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrStorage)
			assert.Equal(t, 1, res.Stored)
			if concurrency == 1 {
				assert.EqualValues(t, 2, calls.Load(), "tick stops at the failing write")
			} else {
				// 已在执行的请求可以完成，但不会进入下一个问题
				assert.LessOrEqual(t, calls.Load(), int64(3))
			}

			total, err := repos.Observation.Count(ctx)
			require.NoError(t, err)
			assert.EqualValues(t, 1, total)

			_, questions, err := repos.ListQuestions(ctx, 0, 10)
			require.NoError(t, err)
			assert.EqualValues(t, 1, questions, "second question is never reached")
		})
	}
}

// rotatingSource 每次加载返回不同的问题列表
type rotatingSource struct {
	loads atomic.Int64
	lists [][]string
}

func (s *rotatingSource) Load(ctx context.Context) []question.Item {
	i := int(s.loads.Add(1)) - 1
	if i >= len(s.lists) {
		i = len(s.lists) - 1
	}
	return question.Texts(s.lists[i]...)
}

func TestRunTick_ReloadsQuestionsEachTick(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewRepositories(testutil.NewTestDB(t))
	reg := newRegistry(t, provider.NewFunc(info("p"), answers("x")))
	src := &rotatingSource{lists: [][]string{{"Q1"}, {"Q1", "Q2"}}}
	o := NewOrchestrator(repos, reg, similarity.NewScorer(&testutil.FakeEmbedder{}), src, Options{})

	res, err := o.RunTick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Questions)

	res, err = o.RunTick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Questions)
	assert.EqualValues(t, 2, src.loads.Load())

	questions, total, err := repos.ListQuestions(ctx, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, questions, 2)
}

func TestRunTick_CanceledContext(t *testing.T) {
	repos := repository.NewRepositories(testutil.NewTestDB(t))
	reg := newRegistry(t, provider.NewFunc(info("p"), answers("x")))
	o := NewOrchestrator(repos, reg, similarity.NewScorer(&testutil.FakeEmbedder{}), question.Texts("Q1"), Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.RunTick(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
