// internal/events/decoder.go
package events

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/pump-trader/internal/dex/pumpfun"
	bin "github.com/rovshanmuradov/pump-trader/internal/utils/binary"
)

const programDataPrefix = "Program data: "

// tag + mint + sol + token + is_buy + user + timestamp
const tradeEventMinLen = 8 + 32 + 8 + 8 + 1 + 32 + 8

// Decoder превращает строки логов в TradeEvent. Пустой фильтр пропускает все mint'ы.
type Decoder struct {
	mint *solana.PublicKey
}

// NewDecoder создаёт декодер; mint == nil отключает фильтр.
func NewDecoder(mint *solana.PublicKey) *Decoder {
	return &Decoder{mint: mint}
}

// DecodeLine разбирает одну строку лога. ok == false - строка не является событием сделки
// либо отфильтрована по mint.
func (d *Decoder) DecodeLine(line string, sig solana.Signature) (ev *TradeEvent, ok bool, err error) {
	payload, found := strings.CutPrefix(line, programDataPrefix)
	if !found {
		return nil, false, nil
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, false, fmt.Errorf("invalid program data: %w", err)
	}
	if len(raw) < bin.DiscriminatorSize || !bytes.Equal(raw[:bin.DiscriminatorSize], pumpfun.TradeEventDiscriminator) {
		return nil, false, nil
	}

	r, err := bin.NewAccountReader(raw, tradeEventMinLen)
	if err != nil {
		return nil, false, fmt.Errorf("truncated trade event: %w", err)
	}
	ev = &TradeEvent{
		Mint:        r.PubKey(),
		SolAmount:   r.U64(),
		TokenAmount: r.U64(),
		IsBuy:       r.Bool(),
		User:        r.PubKey(),
		Signature:   sig,
	}
	ts := r.I64()
	if err := r.Err(); err != nil {
		return nil, false, fmt.Errorf("truncated trade event: %w", err)
	}
	ev.BaseEvent = BaseEvent{EventType: TradeExecuted, EventTime: time.Unix(ts, 0).UTC()}

	if !d.Accepts(ev) {
		return nil, false, nil
	}
	return ev, true, nil
}

// Accepts сообщает, проходит ли событие фильтр по mint.
func (d *Decoder) Accepts(ev *TradeEvent) bool {
	return d.mint == nil || ev.Mint.Equals(*d.mint)
}

// DecodeLogs возвращает все события сделок из логов одной транзакции.
// Нераспознанные строки пропускаются, первая ошибка декодирования возвращается вместе с уже найденными событиями.
func (d *Decoder) DecodeLogs(logs []string, sig solana.Signature) ([]*TradeEvent, error) {
	var (
		out      []*TradeEvent
		firstErr error
	)
	for _, line := range logs {
		ev, ok, err := d.DecodeLine(line, sig)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if ok {
			out = append(out, ev)
		}
	}
	return out, firstErr
}
