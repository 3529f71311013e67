//go:build vl53l0x

package tofsensor

/*
#cgo CFLAGS: -I ../../VL53L0X_1.0.2/Api/core/inc/
#cgo CFLAGS: -I ../../VL53L0X_rasp/platform/inc/
#cgo LDFLAGS: -L ../../VL53L0X_rasp/bin -lVL53L0X_Rasp

#include <stdlib.h>
#include "vl53l0x_api.h"
*/
import "C"
import (
	"log/slog"
	"syscall"
	"time"
	"unsafe"
)

type VL53L0X struct {
	timeout        time.Duration
	deviceFileName *C.char
	device         *C.VL53L0X_Dev_t
}

// New opens and calibrates the sensor at addr on the given I2C device file,
// ready for StartContinuous.
func New(device string, addr byte, timeout time.Duration) (Interface, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	tof := &VL53L0X{timeout: timeout}

	var status C.VL53L0X_Error
	defer func() {
		if status != C.VL53L0X_ERROR_NONE {
			_ = tof.Close()
		}
	}()

	tof.device = (*C.VL53L0X_Dev_t)(C.malloc(C.sizeof_VL53L0X_Dev_t))
	tof.device.I2cDevAddr = C.uchar(addr)
	tof.deviceFileName = C.CString(device)
	tof.device.fd = C.VL53L0X_i2c_init(tof.deviceFileName, C.int(tof.device.I2cDevAddr))
	if tof.device.fd < 0 {
		status = C.VL53L0X_ERROR_CONTROL_INTERFACE
		return nil, ErrI2CInitFailed
	}

	steps := []struct {
		name string
		run  func() C.VL53L0X_Error
	}{
		{"DataInit", func() C.VL53L0X_Error { return C.VL53L0X_DataInit(tof.device) }},
		{"StaticInit", func() C.VL53L0X_Error { return C.VL53L0X_StaticInit(tof.device) }},
		{"PerformRefCalibration", func() C.VL53L0X_Error {
			var vhvSettings, phaseCal C.uint8_t
			return C.VL53L0X_PerformRefCalibration(tof.device, &vhvSettings, &phaseCal)
		}},
		{"PerformRefSpadManagement", func() C.VL53L0X_Error {
			var refSpadCount C.uint32_t
			var isApertureSpads C.uint8_t
			return C.VL53L0X_PerformRefSpadManagement(tof.device, &refSpadCount, &isApertureSpads)
		}},
		{"SetDeviceMode", func() C.VL53L0X_Error {
			return C.VL53L0X_SetDeviceMode(tof.device, C.VL53L0X_DEVICEMODE_SINGLE_RANGING)
		}},
		{"SetLimitCheckEnable(sigma)", func() C.VL53L0X_Error {
			return C.VL53L0X_SetLimitCheckEnable(tof.device, C.VL53L0X_CHECKENABLE_SIGMA_FINAL_RANGE, 1)
		}},
		{"SetLimitCheckEnable(signal)", func() C.VL53L0X_Error {
			return C.VL53L0X_SetLimitCheckEnable(tof.device, C.VL53L0X_CHECKENABLE_SIGNAL_RATE_FINAL_RANGE, 1)
		}},
		{"SetLimitCheckValue(signal)", func() C.VL53L0X_Error {
			return C.VL53L0X_SetLimitCheckValue(tof.device, C.VL53L0X_CHECKENABLE_SIGNAL_RATE_FINAL_RANGE, (C.FixPoint1616_t)(6554))
		}},
		{"SetLimitCheckValue(sigma)", func() C.VL53L0X_Error {
			return C.VL53L0X_SetLimitCheckValue(tof.device, C.VL53L0X_CHECKENABLE_SIGMA_FINAL_RANGE, (C.FixPoint1616_t)(60*65536))
		}},
		{"SetMeasurementTimingBudgetMicroSeconds", func() C.VL53L0X_Error {
			return C.VL53L0X_SetMeasurementTimingBudgetMicroSeconds(tof.device, 33000)
		}},
		{"SetVcselPulsePeriod(pre)", func() C.VL53L0X_Error {
			return C.VL53L0X_SetVcselPulsePeriod(tof.device, C.VL53L0X_VCSEL_PERIOD_PRE_RANGE, 18)
		}},
		{"SetVcselPulsePeriod(final)", func() C.VL53L0X_Error {
			return C.VL53L0X_SetVcselPulsePeriod(tof.device, C.VL53L0X_VCSEL_PERIOD_FINAL_RANGE, 14)
		}},
	}
	for _, s := range steps {
		if status = s.run(); status != C.VL53L0X_ERROR_NONE {
			slog.Error("VL53L0X init step failed", "step", s.name, "status", int(status))
			return nil, ErrDataInitFailed
		}
	}
	return tof, nil
}

func (p *VL53L0X) Close() error {
	if p.device != nil {
		if p.device.fd > 0 {
			_ = syscall.Close(int(p.device.fd))
		}
		C.free(unsafe.Pointer(p.device))
		p.device = nil
	}
	if p.deviceFileName != nil {
		C.free(unsafe.Pointer(p.deviceFileName))
		p.deviceFileName = nil
	}
	return nil
}

func (p *VL53L0X) StartContinuous() error {
	status := C.VL53L0X_SetDeviceMode(p.device, C.VL53L0X_DEVICEMODE_CONTINUOUS_RANGING)
	if status != C.VL53L0X_ERROR_NONE {
		return ErrDataInitFailed
	}
	status = C.VL53L0X_StartMeasurement(p.device)
	if status != C.VL53L0X_ERROR_NONE {
		return ErrDataInitFailed
	}
	C.VL53L0X_ClearInterruptMask(p.device,
		C.VL53L0X_REG_SYSTEM_INTERRUPT_GPIO_NEW_SAMPLE_READY)
	return nil
}

func (p *VL53L0X) ReadRange() (int, error) {
	err := waitForData(func() (bool, error) {
		var ready C.uint8_t
		if C.VL53L0X_GetMeasurementDataReady(p.device, &ready) != C.VL53L0X_ERROR_NONE {
			return false, ErrWaitFailed
		}
		return ready == 1, nil
	}, p.timeout)
	if err != nil {
		return 0, err
	}

	var meas C.VL53L0X_RangingMeasurementData_t
	status := C.VL53L0X_GetRangingMeasurementData(p.device, &meas)
	if status != C.VL53L0X_ERROR_NONE {
		return 0, ErrMeasurementFailed
	}
	C.VL53L0X_ClearInterruptMask(p.device,
		C.VL53L0X_REG_SYSTEM_INTERRUPT_GPIO_NEW_SAMPLE_READY)
	if meas.RangeStatus != 0 {
		return RangeTooFar, nil
	}
	return int(meas.RangeMilliMeter), nil
}
