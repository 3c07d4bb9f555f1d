package commands

import (
	"github.com/wonny/stockscope/internal/fetch"
	"github.com/wonny/stockscope/internal/source/krx"
	"github.com/wonny/stockscope/internal/source/naver"
	"github.com/wonny/stockscope/internal/source/yahoo"
	"github.com/wonny/stockscope/pkg/config"
	"github.com/wonny/stockscope/pkg/httputil"
	"github.com/wonny/stockscope/pkg/logger"
)

// newPipeline wires the fetch pipeline: HTTP client, the three source
// adapters in fallback order, orchestrator, runner. The yahoo client is
// returned separately because it doubles as the exchange-rate source.
func newPipeline(cfg *config.Config, log *logger.Logger) (*fetch.Runner, *yahoo.Client) {
	httpClient := httputil.NewWithTimeout(log, cfg.Fetch.Timeout)

	yahooClient := yahoo.NewClient(httpClient, log, cfg.Yahoo.BaseURL)
	naverClient := naver.NewClient(httpClient, log, cfg.Naver.BaseURL, cfg.Naver.PageDelay, cfg.Naver.MaxPages)
	krxClient := krx.NewClient(httpClient, log, cfg.KRX.BaseURL)

	// ⭐ 폴백 순서: Yahoo → Naver → KRX
	orch := fetch.NewOrchestrator(log, yahooClient, naverClient, krxClient)

	return fetch.NewRunner(orch, log), yahooClient
}
