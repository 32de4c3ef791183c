// Package adapter drives the Microchip MCP2221 USB adapter as a two-pin bus
// probe. The chip's HID command set exposes its four GP pins; with SCL and
// SDA wired to two of them the adapter becomes a (slow) passive sampler for
// buses where no host GPIO header is available.
package adapter

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/karalabe/hid"

	"github.com/mklimuk/i2ctrace"
	"github.com/mklimuk/i2ctrace/cmd/i2ctrace/console"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

// HID command codes used by the probe, per the MCP2221 datasheet.
const (
	cmdGetGPIOValues = 0x51
	cmdSetSRAM       = 0xB1
	cmdGetSRAM       = 0xB0
)

var ErrCommandFailed = errors.New("command failed")
var ErrPinNotGPIO = errors.New("pin is not in GPIO operation")

type MCP2221 struct {
	mx           sync.Mutex
	request      []byte
	response     []byte
	responseWait time.Duration
	sclPin       int
	sdaPin       int
}

type GPIOMode byte

const (
	GPIOModeOut         GPIOMode = 0b00000000
	GPIOModeIn          GPIOMode = 0b00001000
	GPIOModeNoOperation GPIOMode = 0xEF
)

func (m GPIOMode) String() string {
	switch m {
	case GPIOModeIn:
		return "INPUT"
	case GPIOModeOut:
		return "OUTPUT"
	default:
		return "NOOP"
	}
}

// GPIODesignation selects between GPIO operation and a pin's dedicated or
// alternate function. The probe only ever needs plain GPIO operation, but
// reading the designation back tells us whether a pin is usable.
type GPIODesignation byte

const GPIOOperation GPIODesignation = 0b00000000

const gpioOperationMask = 0b00000111

// GPIOValues holds one snapshot of all four GP pins.
type GPIOValues struct {
	Modes  [4]GPIOMode `yaml:"modes"`
	Levels [4]byte     `yaml:"levels"`
}

// ProbeConfig names the GP pins carrying the bus lines.
type ProbeConfig struct {
	SCLPin int `yaml:"scl_pin"`
	SDAPin int `yaml:"sda_pin"`
}

func NewMCP2221(config ProbeConfig) *MCP2221 {
	return &MCP2221{
		request:      make([]byte, 64),
		response:     make([]byte, 64),
		responseWait: 50 * time.Millisecond,
		sclPin:       config.SCLPin,
		sdaPin:       config.SDAPin,
	}
}

// Configure puts all four GP pins into GPIO input operation so the probe
// never drives the bus.
func (d *MCP2221) Configure(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdSetSRAM
	d.request[1] = 0x01
	for i := 0; i < 4; i++ {
		d.request[2+i] = byte(GPIOOperation) | byte(GPIOModeIn)
	}
	err := d.send(ctx, true)
	if err != nil {
		return fmt.Errorf("set GP parameters command write failed: %w", err)
	}
	if d.response[1] == 0x01 {
		return ErrCommandFailed
	}
	return nil
}

// Probe reads the current level of the SCL and SDA pins.
func (d *MCP2221) Probe(ctx context.Context) (i2ctrace.Level, i2ctrace.Level, error) {
	values, err := d.ReadGPIO(ctx)
	if err != nil {
		return i2ctrace.Low, i2ctrace.Low, err
	}
	scl, err := values.level(d.sclPin)
	if err != nil {
		return i2ctrace.Low, i2ctrace.Low, fmt.Errorf("SCL: %w", err)
	}
	sda, err := values.level(d.sdaPin)
	if err != nil {
		return i2ctrace.Low, i2ctrace.Low, fmt.Errorf("SDA: %w", err)
	}
	return scl, sda, nil
}

func (v GPIOValues) level(pin int) (i2ctrace.Level, error) {
	if pin < 0 || pin > 3 {
		return i2ctrace.Low, fmt.Errorf("no such GP pin %d", pin)
	}
	if v.Modes[pin] == GPIOModeNoOperation {
		return i2ctrace.Low, fmt.Errorf("GP%d: %w", pin, ErrPinNotGPIO)
	}
	if v.Levels[pin] > 0 {
		return i2ctrace.High, nil
	}
	return i2ctrace.Low, nil
}

// ReadGPIO snapshots all four GP pins with a single HID exchange.
func (d *MCP2221) ReadGPIO(ctx context.Context) (GPIOValues, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdGetGPIOValues
	err := d.send(ctx, true)
	if err != nil {
		return GPIOValues{}, fmt.Errorf("read GPIO values command write failed: %w", err)
	}
	if d.response[1] == 0x01 {
		return GPIOValues{}, ErrCommandFailed
	}
	return parseGPIOValues(d.response), nil
}

// parseGPIOValues decodes the GET GPIO VALUES response: two bytes per pin
// starting at offset 2, value then direction, with 0xEF marking a pin not
// in GPIO operation.
func parseGPIOValues(response []byte) GPIOValues {
	var values GPIOValues
	for i := 0; i < 4; i++ {
		values.Modes[i] = GPIOModeNoOperation
		values.Levels[i] = response[2+2*i]
		if response[3+2*i] != byte(GPIOModeNoOperation) {
			values.Modes[i] = GPIOMode(response[3+2*i] << 3)
		}
	}
	return values
}

// Designations reads back the current SRAM pin configuration.
func (d *MCP2221) Designations(ctx context.Context) ([4]GPIODesignation, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdGetSRAM
	d.request[1] = 0x01
	err := d.send(ctx, true)
	var res [4]GPIODesignation
	if err != nil {
		return res, fmt.Errorf("get GP parameters command write failed: %w", err)
	}
	if d.response[1] == 0x01 {
		return res, ErrCommandFailed
	}
	for i := 0; i < 4; i++ {
		res[i] = GPIODesignation(d.response[4+i] & gpioOperationMask)
	}
	return res, nil
}

// VerifyPins confirms the probe pins really are in plain GPIO operation
// after Configure. A pin left on a dedicated or alternate function would
// sample garbage without any other symptom.
func (d *MCP2221) VerifyPins(ctx context.Context) error {
	designations, err := d.Designations(ctx)
	if err != nil {
		return err
	}
	return checkDesignations(designations, d.sclPin, d.sdaPin)
}

func checkDesignations(designations [4]GPIODesignation, pins ...int) error {
	for _, pin := range pins {
		if pin < 0 || pin > 3 {
			return fmt.Errorf("no such GP pin %d", pin)
		}
		if designations[pin] != GPIOOperation {
			return fmt.Errorf("GP%d: %w", pin, ErrPinNotGPIO)
		}
	}
	return nil
}

func (d *MCP2221) send(ctx context.Context, response bool) error {
	devs := hid.Enumerate(VendorID, ProductID)
	if len(devs) > 1 {
		return fmt.Errorf("ambiguous device identification")
	}
	if len(devs) == 0 {
		return fmt.Errorf("MCP2221 device not found")
	}
	dev, err := devs[0].Open()
	if err != nil {
		return fmt.Errorf("error opening device: %w", err)
	}
	defer func() {
		_ = dev.Close()
	}()
	verbose := console.IsVerbose(ctx)
	if verbose {
		console.Printf("sending message to adapter:\n%s\n", hex.Dump(d.request))
	}
	n, err := dev.Write(d.request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != 64 {
		return fmt.Errorf("short write: %d", n)
	}
	if !response {
		return nil
	}
	time.Sleep(d.responseWait)
	n, err = dev.Read(d.response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != 64 {
		return fmt.Errorf("short read: %d", n)
	}
	if verbose {
		console.Printf("read message from adapter:\n%s\n", hex.Dump(d.response))
	}
	return nil
}

func (d *MCP2221) resetBuffers() {
	resetBuffer(d.request)
	resetBuffer(d.response)
}

func resetBuffer(buf []byte) {
	for i := 0; i < len(buf)-1; i++ {
		buf[i] = 0x00
	}
}
