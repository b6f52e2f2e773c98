package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	userModel "meal_coupon/internal/domain/user/model"
	"meal_coupon/pkg/utils"
	"net/http"
	"os"
	"sync"
	"time"
)

// 同一张券被多个核销柜台同时提交，乐观锁保证只有一次成功
var (
	baseURL     = flag.String("url", "http://localhost:8080", "service base url")
	couponID    = flag.String("coupon", "", "coupon id to redeem")
	concurrency = flag.Int("n", 200, "number of concurrent redeem requests")
	mode        = flag.String("mode", "DINE-IN", "redeem mode")
	secret      = flag.String("secret", os.Getenv("JWT_SECRET"), "jwt secret used to sign the counter token")
)

var httpClient *http.Client

func init() {
	// 优化 HTTP Client 配置
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 2000
	t.MaxIdleConnsPerHost = 2000
	t.MaxConnsPerHost = 2000
	httpClient = &http.Client{
		Transport: t,
		Timeout:   10 * time.Second,
	}
}

type result struct {
	Code   int    `json:"code"`
	Reason string `json:"reason"`
}

func main() {
	flag.Parse()
	if *couponID == "" {
		fmt.Println("用法: stress_tool -coupon <id> [-n 200] [-mode DINE-IN]")
		os.Exit(2)
	}

	token, _, err := utils.GenerateToken(*secret, "stress-tool", userModel.RoleOperator, time.Hour)
	if err != nil {
		fmt.Printf("生成 token 失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("开始压测：%d 个请求同时核销券 %s (%s)...\n", *concurrency, *couponID, *mode)

	var wg sync.WaitGroup
	var mu sync.Mutex
	successCount := 0
	reasons := make(map[string]int)

	start := time.Now()
	for i := 1; i <= *concurrency; i++ {
		wg.Add(1)
		go func(counter int) {
			defer wg.Done()
			r, err := redeem(token, counter)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				reasons["transport-error"]++
			case r.Code == 0:
				successCount++
			default:
				reasons[r.Reason]++
			}
		}(i)
	}
	wg.Wait()
	duration := time.Since(start)

	fmt.Println("--------------------------------------------------")
	fmt.Printf("压测结束，耗时: %v\n", duration)
	fmt.Printf("总请求数: %d\n", *concurrency)
	fmt.Printf("QPS: %.2f\n", float64(*concurrency)/duration.Seconds())
	fmt.Printf("核销成功: %d (预期: 1)\n", successCount)
	for reason, n := range reasons {
		fmt.Printf("被拒绝 [%s]: %d\n", reason, n)
	}
	fmt.Println("--------------------------------------------------")

	if successCount != 1 {
		os.Exit(1)
	}
}

func redeem(token string, counter int) (*result, error) {
	payload := map[string]interface{}{
		"couponId":  *couponID,
		"mode":      *mode,
		"updatedBy": fmt.Sprintf("counter-%d", counter),
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequest(http.MethodPost, *baseURL+"/coupons/redeem", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var r result
	if err := json.Unmarshal(respBody, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
