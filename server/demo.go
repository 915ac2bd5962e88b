package server

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	apperrors "github.com/kbukum/streamcall/errors"
	"github.com/kbukum/streamcall/logger"
)

// RegisterDemo registers a small API exercising every call shape:
//
//	GET  /Demo/greet?name=        plain value
//	GET  /Demo/add?a=&b=          plain value (also POST with a JSON body)
//	GET  /Demo/count?n=&delay_ms=&fail_at=
//	                              stream of integers
//	POST /Demo/countText?n=       stream of "COUNT: i" lines, then "DONE"
//	POST /Demo/echo               "ECHO: <line>" for every request line
//	GET  /Demo/fail?status=&reason=
//	                              error status with reason as the body
//	POST /Counter/new             new counter instance id
//	POST /Counter/add             {self, by}, returns the new value
//	GET  /Counter/value?self=     current value
//	GET  /Demo/ws                 WebSocket line echo
func (s *Server) RegisterDemo() {
	d := &demo{
		counters: make(map[string]int64),
		log:      s.log.WithComponent("demo"),
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
	}

	s.engine.GET("/Demo/greet", d.greet)
	s.engine.GET("/Demo/add", d.add)
	s.engine.POST("/Demo/add", d.add)
	s.Stream(http.MethodGet, "/Demo/count", d.count)
	s.Stream(http.MethodPost, "/Demo/countText", d.countText)
	s.Duplex("/Demo/echo", d.echo)
	s.engine.GET("/Demo/fail", d.fail)
	s.engine.GET("/Demo/ws", d.websocket)

	s.engine.POST("/Counter/new", d.newCounter)
	s.engine.POST("/Counter/add", d.addCounter)
	s.engine.GET("/Counter/value", d.counterValue)
}

type demo struct {
	mu       sync.Mutex
	counters map[string]int64

	log      *logger.Logger
	upgrader websocket.Upgrader
}

func (d *demo) greet(c *gin.Context) {
	p, err := BindParams(c)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondValue(c, fmt.Sprintf("Hello, %s!", p.String("name", "world")))
}

func (d *demo) add(c *gin.Context) {
	p, err := BindParams(c)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	a, err := p.Int("a", 0)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	b, err := p.Int("b", 0)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondValue(c, a+b)
}

func (d *demo) count(c *gin.Context, emit *Emitter) error {
	p, err := BindParams(c)
	if err != nil {
		return err
	}
	n, err := p.Int("n", 10)
	if err != nil {
		return err
	}
	delay, err := p.Duration("delay_ms", 0)
	if err != nil {
		return err
	}
	failAt, err := p.Int("fail_at", -1)
	if err != nil {
		return err
	}

	ctx := c.Request.Context()
	for i := range n {
		if i == failAt {
			return fmt.Errorf("count failed at %d", i)
		}
		if err := emit.Emit(i); err != nil {
			return err
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return nil
}

func (d *demo) countText(c *gin.Context, emit *Emitter) error {
	p, err := BindParams(c)
	if err != nil {
		return err
	}
	n, err := p.Int("n", 10)
	if err != nil {
		return err
	}
	for i := range n {
		if err := emit.Emit("COUNT: " + strconv.Itoa(i)); err != nil {
			return err
		}
	}
	return emit.Emit("DONE")
}

func (d *demo) echo(c *gin.Context, in *bufio.Scanner, emit *Emitter) error {
	for in.Scan() {
		if err := emit.Emit("ECHO: " + in.Text()); err != nil {
			return err
		}
	}
	return in.Err()
}

func (d *demo) fail(c *gin.Context) {
	p, err := BindParams(c)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	status, err := p.Int("status", http.StatusInternalServerError)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	if status < 400 || status > 599 {
		RespondWithError(c, apperrors.InvalidInput("status", "status must be an error code"))
		return
	}
	c.String(status, p.String("reason", http.StatusText(status)))
}

func (d *demo) newCounter(c *gin.Context) {
	id := uuid.NewString()
	d.mu.Lock()
	d.counters[id] = 0
	d.mu.Unlock()
	RespondValue(c, id)
}

func (d *demo) addCounter(c *gin.Context) {
	p, err := BindParams(c)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	self, err := p.Require("self")
	if err != nil {
		RespondWithError(c, err)
		return
	}
	by, err := p.Int("by", 1)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	d.mu.Lock()
	v, ok := d.counters[self]
	if ok {
		v += int64(by)
		d.counters[self] = v
	}
	d.mu.Unlock()

	if !ok {
		RespondWithError(c, apperrors.NotFound("counter "+self))
		return
	}
	RespondValue(c, v)
}

func (d *demo) counterValue(c *gin.Context) {
	p, err := BindParams(c)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	self, err := p.Require("self")
	if err != nil {
		RespondWithError(c, err)
		return
	}

	d.mu.Lock()
	v, ok := d.counters[self]
	d.mu.Unlock()

	if !ok {
		RespondWithError(c, apperrors.NotFound("counter "+self))
		return
	}
	RespondValue(c, v)
}

// websocket echoes each line of every message as "ECHO: <line>". An empty
// message ends the input and the server closes normally.
func (d *demo) websocket(c *gin.Context) {
	conn, err := d.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		d.log.Warn("websocket upgrade failed", logger.ErrorFields("upgrade", err))
		return
	}
	defer conn.Close()

	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			d.log.Debug("websocket read ended", logger.ErrorFields("read", err))
			return
		}
		if len(msg) == 0 {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			return
		}
		var out bytes.Buffer
		sc := bufio.NewScanner(bytes.NewReader(msg))
		for sc.Scan() {
			out.WriteString("ECHO: " + sc.Text() + "\n")
		}
		if err := conn.WriteMessage(mt, out.Bytes()); err != nil {
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
